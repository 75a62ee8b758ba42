package command

import (
	"fmt"

	"github.com/acronis/go-srcexport/pkg/rules"
	"github.com/spf13/cobra"
)

const (
	VerboseFlag = "verbose"
	srcDirFlag  = "src-dir"
	trimFlag    = "remove-nonessential-files"
)

func AddSrcDirFlag(cmd *cobra.Command) {
	cmd.Flags().String(srcDirFlag, "", "source tree root (required)")
}

func GetSrcDir(cmd *cobra.Command) (string, error) {
	srcDir, err := cmd.Flags().GetString(srcDirFlag)
	if err != nil {
		return "", fmt.Errorf("get %s flag: %w", srcDirFlag, err)
	}
	return srcDir, nil
}

func AddTrimFlag(cmd *cobra.Command, trim *bool) {
	cmd.Flags().BoolVar(trim, trimFlag, false, "drop files of nonessential and test directories, keeping the directories")
}

func IsVerbose(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool(VerboseFlag)
	return err == nil && verbose
}

// RulesOptions selects the rule set: a rules file or the built-in defaults,
// extended with lists given on the command line.
type RulesOptions struct {
	File  string
	Extra rules.Config
}

func AddRulesFlags(cmd *cobra.Command, opts *RulesOptions) {
	cmd.Flags().StringVar(&opts.File, "rules", "", "YAML rules file replacing the built-in rules")
	cmd.Flags().StringSliceVar(&opts.Extra.NonessentialDirs, "nonessential-dir", nil, "additional nonessential directory prefix")
	cmd.Flags().StringSliceVar(&opts.Extra.TestDirs, "test-dir", nil, "additional test data directory")
	cmd.Flags().StringSliceVar(&opts.Extra.EssentialFiles, "essential-file", nil, "additional file kept in trimmed directories")
	cmd.Flags().StringSliceVar(&opts.Extra.ExcludeGlobs, "exclude", nil, "glob pattern of relative paths to exclude")
}

func (o RulesOptions) Load() (*rules.RuleSet, error) {
	cfg := rules.Default()
	if o.File != "" {
		fileCfg, err := rules.LoadFile(o.File)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	rs, err := rules.New(cfg.Merge(o.Extra))
	if err != nil {
		return nil, fmt.Errorf("build rule set: %w", err)
	}
	return rs, nil
}
