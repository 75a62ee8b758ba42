package archiver

import (
	"log/slog"

	"github.com/acronis/go-srcexport/pkg/classifier"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Stats counts what an archiver wrote and skipped.
type Stats struct {
	Written int
	Skipped int
	Bytes   int64
	// SkippedByRule is keyed by rule name in evaluation order.
	SkippedByRule *orderedmap.OrderedMap[string, int]
}

func NewStats() *Stats {
	byRule := orderedmap.New[string, int]()
	for _, name := range classifier.RuleNames() {
		byRule.Set(name, 0)
	}
	return &Stats{SkippedByRule: byRule}
}

func (s *Stats) AddWritten(size int64) {
	s.Written++
	s.Bytes += size
}

func (s *Stats) AddSkipped(rule string) {
	s.Skipped++
	n, _ := s.SkippedByRule.Get(rule)
	s.SkippedByRule.Set(rule, n+1)
}

// LogValue implements slog.LogValuer. Rules that skipped nothing are omitted.
func (s *Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("written", s.Written),
		slog.Int("skipped", s.Skipped),
		slog.Int64("bytes", s.Bytes),
	}
	var byRule []any
	for pair := s.SkippedByRule.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value > 0 {
			byRule = append(byRule, slog.Int(pair.Key, pair.Value))
		}
	}
	if len(byRule) != 0 {
		attrs = append(attrs, slog.Group("skipped_by_rule", byRule...))
	}
	return slog.GroupValue(attrs...)
}
