package testsupp

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/dusted-go/logging/prettylog"
	slogformatter "github.com/samber/slog-formatter"
)

type testLogWriter struct {
	t *testing.T
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// InitLog routes the default logger to the test log at debug level.
func InitLog(t *testing.T) {
	t.Helper()

	funcHandler := slogformatter.NewFormatterHandler(
		slogformatter.FormatByType(func(s []string) slog.Value {
			return slog.StringValue(strings.Join(s, ","))
		}),
	)

	plHandler := prettylog.New(
		&slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
		prettylog.WithDestinationWriter(testLogWriter{t: t}),
	)

	prev := slog.Default()
	slog.SetDefault(slog.New(funcHandler(plHandler)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
