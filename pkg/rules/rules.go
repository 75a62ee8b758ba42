package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

// Config is the declarative form of a rule set, as read from a rules file or built from flags.
type Config struct {
	NonessentialDirs []string `mapstructure:"nonessential_dirs" yaml:"nonessential_dirs"`
	TestDirs         []string `mapstructure:"test_dirs" yaml:"test_dirs"`
	EssentialFiles   []string `mapstructure:"essential_files" yaml:"essential_files"`
	EssentialGitDirs []string `mapstructure:"essential_git_dirs" yaml:"essential_git_dirs"`
	ExcludeGlobs     []string `mapstructure:"exclude" yaml:"exclude"`
}

// Merge appends the lists of other to c, keeping the first occurrence of duplicates.
func (c Config) Merge(other Config) Config {
	merge := func(a, b []string) []string {
		return lo.Uniq(append(append([]string(nil), a...), b...))
	}
	return Config{
		NonessentialDirs: merge(c.NonessentialDirs, other.NonessentialDirs),
		TestDirs:         merge(c.TestDirs, other.TestDirs),
		EssentialFiles:   merge(c.EssentialFiles, other.EssentialFiles),
		EssentialGitDirs: merge(c.EssentialGitDirs, other.EssentialGitDirs),
		ExcludeGlobs:     merge(c.ExcludeGlobs, other.ExcludeGlobs),
	}
}

// RuleSet is an immutable, query-ready rule set.
type RuleSet struct {
	cfg       Config
	trimmed   []string
	essential map[string]struct{}
}

func New(cfg Config) (*RuleSet, error) {
	for _, field := range []struct {
		name  string
		items []string
	}{
		{"nonessential_dirs", cfg.NonessentialDirs},
		{"test_dirs", cfg.TestDirs},
		{"essential_files", cfg.EssentialFiles},
		{"essential_git_dirs", cfg.EssentialGitDirs},
	} {
		for _, item := range field.items {
			if item == "" {
				return nil, fmt.Errorf("%s: empty path", field.name)
			}
			if filepath.IsAbs(item) || strings.HasPrefix(item, "/") {
				return nil, fmt.Errorf("%s: path %q must be relative to the source root", field.name, item)
			}
		}
	}
	for _, pattern := range cfg.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("exclude: invalid glob pattern %q", pattern)
		}
	}

	cfg = Config{}.Merge(cfg)
	rs := &RuleSet{
		cfg:       cfg,
		trimmed:   lo.Uniq(append(append([]string(nil), cfg.NonessentialDirs...), cfg.TestDirs...)),
		essential: make(map[string]struct{}, len(cfg.EssentialFiles)),
	}
	for _, f := range cfg.EssentialFiles {
		rs.essential[f] = struct{}{}
	}
	return rs, nil
}

// MustNew is New for static configurations known to be valid.
func MustNew(cfg Config) *RuleSet {
	rs, err := New(cfg)
	if err != nil {
		panic(fmt.Errorf("build rule set: %w", err))
	}
	return rs
}

// Config returns a copy of the configuration the rule set was built from.
func (rs *RuleSet) Config() Config {
	return Config{}.Merge(rs.cfg)
}

func (rs *RuleSet) TestDirs() []string {
	return append([]string(nil), rs.cfg.TestDirs...)
}

// TrimmedPrefix reports the first nonessential or test prefix relPath starts with.
// Matching is a plain string prefix test.
func (rs *RuleSet) TrimmedPrefix(relPath string) (string, bool) {
	return lo.Find(rs.trimmed, func(prefix string) bool {
		return strings.HasPrefix(relPath, prefix)
	})
}

func (rs *RuleSet) IsEssentialFile(relPath string) bool {
	_, ok := rs.essential[relPath]
	return ok
}

func (rs *RuleSet) IsEssentialGitDir(relPath string) bool {
	return lo.ContainsBy(rs.cfg.EssentialGitDirs, func(prefix string) bool {
		return strings.HasPrefix(relPath, prefix)
	})
}

// MatchExcludeGlob returns the first exclude pattern matching the slash-separated relPath.
func (rs *RuleSet) MatchExcludeGlob(relPath string) (string, bool) {
	return lo.Find(rs.cfg.ExcludeGlobs, func(pattern string) bool {
		// patterns are validated in New
		matched, _ := doublestar.Match(pattern, relPath)
		return matched
	})
}
