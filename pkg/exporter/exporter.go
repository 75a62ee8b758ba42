// Package exporter drives a complete export: validation, timestamp, walk, archive and compression.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/acronis/go-srcexport/pkg/archiver"
	"github.com/acronis/go-srcexport/pkg/archiver/tarwriter"
	"github.com/acronis/go-srcexport/pkg/compressor"
	"github.com/acronis/go-srcexport/pkg/filesys"
	"github.com/acronis/go-srcexport/pkg/rules"
	"github.com/acronis/go-srcexport/pkg/walker"
	"github.com/acronis/go-stacktrace"
)

const ContainerExt = "tar"

var (
	ErrNoOutput  = errors.New("you must provide only one argument: output file name (without .tar.xz extension)")
	ErrNoVersion = errors.New("a version number must be provided via the --version option")
	ErrNoSrcDir  = errors.New("a source directory must be provided via the --src-dir option")
)

// UsageError marks invalid invocations, detected before any work starts.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

type Options struct {
	// OutputStem is the output path without the ".tar.<ext>" suffix.
	OutputStem string
	// BaseName is the archive root directory; defaults to the base name of OutputStem.
	BaseName string
	SrcDir   string
	// Version labels the export; it does not affect archive content.
	Version  string
	Trim     bool
	TestData bool
	Verbose  bool
	// TimestampFile is resolved against SrcDir unless absolute.
	// Defaults to rules.DefaultTimestampFile.
	TimestampFile string
	// Compressor defaults to xz.
	Compressor compressor.Compressor
	// Rules defaults to the built-in rule set.
	Rules *rules.RuleSet
	// Report receives verbose entry lines and skip messages. Defaults to os.Stdout.
	Report io.Writer
	// Checksum writes an xxh3 checksum file next to the archive.
	Checksum bool
}

type Result struct {
	Path         string
	ChecksumPath string
	Stats        *archiver.Stats
}

// Validate checks the invocation and the environment and fills defaults.
func (o *Options) Validate() error {
	if o.OutputStem == "" {
		return &UsageError{Err: ErrNoOutput}
	}
	if o.Version == "" {
		return &UsageError{Err: ErrNoVersion}
	}
	if o.SrcDir == "" {
		return &UsageError{Err: ErrNoSrcDir}
	}
	if _, err := os.Stat(o.SrcDir); err != nil {
		return fmt.Errorf("cannot find the src directory %s: %w", o.SrcDir, err)
	}

	if o.BaseName == "" {
		o.BaseName = filepath.Base(o.OutputStem)
	}
	if o.TimestampFile == "" {
		o.TimestampFile = rules.DefaultTimestampFile
	}
	if o.Compressor == nil {
		c, err := compressor.Lookup(compressor.DefaultName)
		if err != nil {
			return err
		}
		o.Compressor = c
	}
	if o.Rules == nil {
		o.Rules = rules.MustNew(rules.Default())
	}
	if o.Report == nil {
		o.Report = os.Stdout
	}
	return nil
}

// OutputPath is the archive file name for the options.
func (o *Options) OutputPath() string {
	ext := compressor.DefaultName
	if o.Compressor != nil {
		ext = o.Compressor.Ext()
	}
	return o.OutputStem + "." + ContainerExt + "." + ext
}

func (o *Options) timestampPath() string {
	if filepath.IsAbs(o.TimestampFile) {
		return o.TimestampFile
	}
	return filepath.Join(o.SrcDir, filepath.FromSlash(o.TimestampFile))
}

// ReadTimestamp reads a decimal count of epoch seconds.
func ReadTimestamp(fName string) (time.Time, error) {
	raw, err := os.ReadFile(fName)
	if err != nil {
		return time.Time{}, fmt.Errorf("read timestamp file: %w", err)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp file %s: %w", fName, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Run exports the source tree. The archive, the compressor and the output file are
// released on every path. When the result is an error the file left on disk must not
// be trusted.
func Run(ctx context.Context, opts Options) (res Result, err error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	ts, err := ReadTimestamp(opts.timestampPath())
	if err != nil {
		return Result{}, err
	}

	mode := walker.Full
	if opts.TestData {
		mode = walker.TestData
	}
	outPath := opts.OutputPath()
	slog.Info("Exporting source tree",
		slog.String("src", opts.SrcDir),
		slog.String("output", outPath),
		slog.String("version", opts.Version),
		slog.String("mode", mode.String()),
		slog.Bool("trim", opts.Trim),
		slog.Time("timestamp", ts))

	if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
		return Result{}, fmt.Errorf("create directory: %w", err)
	}
	archive, err := os.Create(outPath)
	if err != nil {
		return Result{}, fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
	}()

	stream, err := opts.Compressor.Open(ctx, archive)
	if err != nil {
		return Result{}, stacktrace.NewWrapped("compression failed", err,
			stacktrace.WithType("compression"), stacktrace.WithInfo("compressor", opts.Compressor.Name()))
	}

	var arch archiver.Archiver = tarwriter.New(stream, tarwriter.Options{
		Timestamp: ts,
		BaseName:  opts.BaseName,
		Verbose:   opts.Verbose,
		Report:    opts.Report,
	})

	w := walker.New(opts.Rules, opts.Trim, walker.WithMissingDirHandler(func(path string) {
		slog.Warn("Test data directory not present", slog.String("path", path))
		fmt.Fprintf(opts.Report, "\"%s\" not present; skipping.\n", path)
	}))
	walkErr := w.Run(opts.SrcDir, mode, arch.Write)
	tarErr := arch.Close()

	if compressErr := stream.Close(); compressErr != nil {
		// a dead compressor usually surfaces first as a broken pipe in the walk
		return Result{}, stacktrace.NewWrapped("compression failed", errors.Join(compressErr, walkErr),
			stacktrace.WithType("compression"), stacktrace.WithInfo("compressor", opts.Compressor.Name()))
	}
	if walkErr != nil {
		return Result{}, fmt.Errorf("write archive: %w", walkErr)
	}
	if tarErr != nil {
		return Result{}, tarErr
	}
	if err := archive.Sync(); err != nil {
		return Result{}, fmt.Errorf("flush archive: %w", err)
	}

	res = Result{Path: outPath, Stats: arch.Stats()}
	if opts.Checksum {
		if res.ChecksumPath, err = filesys.WriteChecksumFile(outPath); err != nil {
			return Result{}, err
		}
	}

	slog.Info("Export has been completed", slog.String("path", outPath), slog.Any("stats", res.Stats))
	return res, nil
}
