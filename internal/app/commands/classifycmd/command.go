package classifycmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/acronis/go-srcexport/internal/app/command"
	"github.com/acronis/go-srcexport/pkg/classifier"
	"github.com/spf13/cobra"
)

type ClassifyOptions struct {
	Trim  bool
	Rules command.RulesOptions
}

func New(_ context.Context) *cobra.Command {
	opts := ClassifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify PATH...",
		Short: "show the export decision and the deciding rule for source paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcDir, err := command.GetSrcDir(cmd)
			if err != nil {
				return fmt.Errorf("get source directory: %w", err)
			}
			if srcDir == "" {
				srcDir = "."
			}

			return command.WrapError(cmd, execute(cmd.OutOrStdout(), srcDir, args, opts))
		},
	}

	command.AddSrcDirFlag(cmd)
	command.AddTrimFlag(cmd, &opts.Trim)
	command.AddRulesFlags(cmd, &opts.Rules)
	return cmd
}

func execute(out io.Writer, srcDir string, paths []string, opts ClassifyOptions) error {
	rs, err := opts.Rules.Load()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	c := classifier.New(rs, opts.Trim)

	for _, p := range paths {
		rel := filepath.ToSlash(filepath.Clean(p))
		if filepath.IsAbs(p) {
			if rel, err = filepath.Rel(srcDir, p); err != nil {
				return fmt.Errorf("relative path of %s: %w", p, err)
			}
			rel = filepath.ToSlash(rel)
		}
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return fmt.Errorf("%s is outside of %s", p, srcDir)
		}

		relPath, res, err := classifyWithAncestors(c, srcDir, rel)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", res.Decision, res.Rule, relPath); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

// classifyWithAncestors mirrors the walk: an excluded directory hides everything below it,
// so the first excluded ancestor decides. It returns the path that made the decision.
func classifyWithAncestors(c *classifier.Classifier, srcDir, rel string) (string, classifier.Result, error) {
	parts := strings.Split(rel, "/")
	for i := 1; i <= len(parts); i++ {
		cur := strings.Join(parts[:i], "/")
		e, err := classifier.NewEntry(filepath.Join(srcDir, filepath.FromSlash(cur)), cur)
		if err != nil {
			return "", classifier.Result{}, err
		}
		res := c.Classify(e)
		if i == len(parts) || (res.Decision == classifier.Exclude && e.Kind == classifier.KindDir) {
			return cur, res, nil
		}
	}
	return rel, classifier.Result{}, nil
}
