package checksumcmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/acronis/go-srcexport/internal/app/command"
	"github.com/acronis/go-srcexport/pkg/filesys"
	"github.com/spf13/cobra"
)

func New(_ context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "checksum PATH",
		Short: "print the xxh3 checksum of an archive or the hash of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.WrapError(cmd, execute(cmd.OutOrStdout(), args[0]))
		},
	}
}

func execute(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var sum string
	if info.IsDir() {
		sum, err = filesys.ComputeDirectoryHash(path)
	} else {
		sum, err = filesys.ComputeFileChecksum(path)
	}
	if err != nil {
		return fmt.Errorf("checksum %s: %w", path, err)
	}

	if _, err := fmt.Fprintf(out, "%s  %s\n", sum, path); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}
	return nil
}
