package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/acronis/go-srcexport/internal/app/command"
	"github.com/acronis/go-srcexport/internal/app/commands/checksumcmd"
	"github.com/acronis/go-srcexport/internal/app/commands/classifycmd"
	"github.com/acronis/go-srcexport/internal/app/commands/exportcmd"
	"github.com/acronis/go-srcexport/pkg/exporter"
	"github.com/acronis/go-stacktrace"
	slogex "github.com/acronis/go-stacktrace/slogex"

	"github.com/dusted-go/logging/prettylog"
	"github.com/mattn/go-isatty"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func initLogging(verbose bool, w io.Writer) {
	logLvl := func() slog.Level {
		if verbose {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}()

	logger := slog.New(
		slogformatter.NewFormatterHandler(
			slogformatter.FormatByType(func(s []string) slog.Value {
				return slog.StringValue(strings.Join(s, ","))
			}),
		)(
			prettylog.New(&slog.HandlerOptions{Level: logLvl},
				prettylog.WithDestinationWriter(w),
				func() prettylog.Option {
					if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
						return prettylog.WithColor()
					}
					return func(_ *prettylog.Handler) {}
				}(),
			),
		),
	)
	slog.SetDefault(logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newRootCmd(ctx context.Context, ensureDuplicates *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "srcexport",
		Short:         "srcexport creates filtered, reproducible source tarballs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initLogging(command.IsVerbose(cmd), cmd.ErrOrStderr())
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	cmd.PersistentFlags().BoolP(command.VerboseFlag, "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(ensureDuplicates, "ensure-duplicates", "d", false, "ensure that there are no duplicates in tracebacks")

	cmd.AddCommand(
		exportcmd.New(ctx),
		classifycmd.New(ctx),
		checksumcmd.New(ctx),
		&cobra.Command{
			Use:   "version",
			Short: "print a version of tool",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
				return err
			},
		},
	)
	return cmd
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var ensureDuplicates bool
	initLogging(false, stderr)

	rootCmd := newRootCmd(ctx, &ensureDuplicates)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	failedCmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}
	if failedCmd == nil {
		failedCmd = rootCmd
	}

	var usageErr *exporter.UsageError
	var cmdErr *command.Error
	switch {
	case errors.As(err, &usageErr):
		fmt.Fprintln(stderr, usageErr.Error())
		fmt.Fprint(stderr, failedCmd.UsageString())
	case errors.As(err, &cmdErr) && cmdErr.Inner != nil:
		stOpts := func() []stacktrace.TracesOpt {
			if ensureDuplicates {
				return []stacktrace.TracesOpt{stacktrace.WithEnsureDuplicates()}
			}
			return []stacktrace.TracesOpt{}
		}()

		slog.Error("Command failed", slogex.ErrToSlogAttr(cmdErr.Inner, stOpts...))
	default:
		fmt.Fprintln(stderr, err.Error())
		fmt.Fprint(stderr, failedCmd.UsageString())
	}
	return 1
}
