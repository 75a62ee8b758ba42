// Package compressor provides deterministic streaming compression for export archives.
package compressor

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/acronis/go-srcexport/internal/pkg/execx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const DefaultName = "xz"

// Compressor wraps a destination with a compressing writer. Closing the returned
// writer flushes all data to dst and reports any compression failure; dst stays open.
type Compressor interface {
	Name() string
	// Ext is the file extension appended after ".tar".
	Ext() string
	Open(ctx context.Context, dst io.Writer) (io.WriteCloser, error)
}

var registry = map[string]Compressor{
	"xz":   &External{Program: "xz", Args: []string{"-T", "0", "-9", "-"}, Extension: "xz"},
	"gzip": Gzip{},
	"zstd": Zstd{},
}

// Lookup returns a built-in compressor by name.
func Lookup(name string) (Compressor, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown compression %q, expected one of %v", name, Names())
	}
	return c, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// External pipes the stream through a separate process reading stdin and writing stdout.
type External struct {
	Program   string
	Args      []string
	Extension string
}

func (c *External) Name() string { return c.Program }
func (c *External) Ext() string  { return c.Extension }

func (c *External) Open(ctx context.Context, dst io.Writer) (io.WriteCloser, error) {
	args := append([]string{c.Program}, c.Args...)
	proc, err := execx.Pipe(ctx, execx.Command{Args: args, Stdout: dst})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Program, err)
	}
	return proc, nil
}

// Gzip compresses in-process. The header carries no name or time.
type Gzip struct{}

func (Gzip) Name() string { return "gzip" }
func (Gzip) Ext() string  { return "gz" }

func (Gzip) Open(_ context.Context, dst io.Writer) (io.WriteCloser, error) {
	gw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	return gw, nil
}

// Zstd compresses in-process with a single-threaded encoder so output does not
// depend on the number of CPUs.
type Zstd struct{}

func (Zstd) Name() string { return "zstd" }
func (Zstd) Ext() string  { return "zst" }

func (Zstd) Open(_ context.Context, dst io.Writer) (io.WriteCloser, error) {
	zw, err := zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return zw, nil
}
