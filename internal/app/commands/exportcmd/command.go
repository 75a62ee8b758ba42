package exportcmd

import (
	"context"
	"fmt"

	"github.com/acronis/go-srcexport/internal/app/command"
	"github.com/acronis/go-srcexport/pkg/compressor"
	"github.com/acronis/go-srcexport/pkg/exporter"
	"github.com/acronis/go-srcexport/pkg/rules"
	"github.com/spf13/cobra"
)

type ExportOptions struct {
	BaseName      string
	Version       string
	Trim          bool
	TestData      bool
	Compression   string
	TimestampFile string
	Checksum      bool
	Rules         command.RulesOptions
	xz            bool
}

func New(ctx context.Context) *cobra.Command {
	opts := ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export OUTPUT",
		Short: "export a filtered source tree as a reproducible compressed tarball",
		Long: `Creates OUTPUT.tar.<ext> with the source tree, without version control metadata.
With --remove-nonessential-files the files of nonessential and test directories are dropped
so that the archive stays small while build files needed by gn gen are kept.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &exporter.UsageError{Err: exporter.ErrNoOutput}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			srcDir, err := command.GetSrcDir(cmd)
			if err != nil {
				return fmt.Errorf("get source directory: %w", err)
			}

			return command.WrapError(cmd, execute(ctx, cmd, args[0], srcDir, opts))
		},
	}

	command.AddSrcDirFlag(cmd)
	command.AddTrimFlag(cmd, &opts.Trim)
	command.AddRulesFlags(cmd, &opts.Rules)
	cmd.Flags().StringVar(&opts.BaseName, "basename", "", "archive root directory (default: base name of OUTPUT)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "version being exported (required)")
	cmd.Flags().BoolVar(&opts.TestData, "test-data", false, "export only the test data directories")
	cmd.Flags().StringVar(&opts.Compression, "compression", compressor.DefaultName,
		fmt.Sprintf("compression, one of %v", compressor.Names()))
	cmd.Flags().StringVar(&opts.TimestampFile, "timestamp-file", rules.DefaultTimestampFile,
		"file with the epoch seconds used as modification time, relative to the source directory")
	cmd.Flags().BoolVar(&opts.Checksum, "checksum", false, "write an xxh3 checksum file next to the archive")
	cmd.Flags().BoolVar(&opts.xz, "xz", false, "no effect, kept for compatibility")
	_ = cmd.Flags().MarkHidden("xz")

	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, output, srcDir string, opts ExportOptions) error {
	comp, err := compressor.Lookup(opts.Compression)
	if err != nil {
		return &exporter.UsageError{Err: err}
	}

	exportOpts := exporter.Options{
		OutputStem:    output,
		BaseName:      opts.BaseName,
		SrcDir:        srcDir,
		Version:       opts.Version,
		Trim:          opts.Trim,
		TestData:      opts.TestData,
		Verbose:       command.IsVerbose(cmd),
		TimestampFile: opts.TimestampFile,
		Compressor:    comp,
		Report:        cmd.OutOrStdout(),
		Checksum:      opts.Checksum,
	}
	// invocation errors are reported before the rules are read
	if err := exportOpts.Validate(); err != nil {
		return err
	}
	if exportOpts.Rules, err = opts.Rules.Load(); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	if _, err := exporter.Run(ctx, exportOpts); err != nil {
		return fmt.Errorf("export %s: %w", srcDir, err)
	}
	return nil
}
