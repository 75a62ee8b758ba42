package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acronis/go-srcexport/internal/app/command"
	"github.com/acronis/go-srcexport/pkg/exporter"
	"github.com/acronis/go-srcexport/pkg/rules"
	"github.com/acronis/go-srcexport/pkg/testsupp"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var ensureDuplicates bool
	cmd := newRootCmd(context.Background(), &ensureDuplicates)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	_, err := cmd.ExecuteC()
	return out.String(), err
}

func makeSource(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	testsupp.MakeTree(t, src, map[string]string{
		"base/a.cc":                          "int a;",
		"v8/test/mjsunit/x.js":               "x",
		"v8/test/BUILD.gn":                   "group()",
		"third_party/rust-src/lib/.git/HEAD": "ref",
		".git/HEAD":                          "ref",
	})
	testsupp.WriteTimestamp(t, src, rules.DefaultTimestampFile, 1700000000)
	return src
}

func Test_Export(t *testing.T) {
	src := makeSource(t)
	out := filepath.Join(t.TempDir(), "chromium-1.2.3")

	stdout, err := execute(t, "export", out, "--src-dir", src, "--version", "1.2.3",
		"--remove-nonessential-files", "--compression", "gzip", "--checksum", "--verbose")
	require.NoError(t, err)
	require.Contains(t, stdout, "D\t"+filepath.Join(src, "v8", "test", "mjsunit", "x.js"))
	require.Contains(t, stdout, "A\t"+filepath.Join(src, "v8", "test", "BUILD.gn"))

	_, err = os.Stat(out + ".tar.gz")
	require.NoError(t, err)
	_, err = os.Stat(out + ".tar.gz.xxh3")
	require.NoError(t, err)
}

func Test_ExportUsageErrors(t *testing.T) {
	src := makeSource(t)
	outDir := t.TempDir()

	type testcase struct {
		args []string
		want error
	}
	testcases := map[string]testcase{
		"no version":    {args: []string{"export", filepath.Join(outDir, "x"), "--src-dir", src}, want: exporter.ErrNoVersion},
		"no output":     {args: []string{"export", "--src-dir", src, "--version", "1"}, want: exporter.ErrNoOutput},
		"two outputs":   {args: []string{"export", "a", "b", "--src-dir", src, "--version", "1"}, want: exporter.ErrNoOutput},
		"no source dir": {args: []string{"export", filepath.Join(outDir, "x"), "--version", "1"}, want: exporter.ErrNoSrcDir},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			var usageErr *exporter.UsageError
			require.ErrorAs(t, err, &usageErr)
			require.ErrorIs(t, err, tc.want)
		})
	}

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func Test_ExportUnknownCompression(t *testing.T) {
	src := makeSource(t)
	_, err := execute(t, "export", filepath.Join(t.TempDir(), "x"), "--src-dir", src, "--version", "1", "--compression", "rar")
	var usageErr *exporter.UsageError
	require.ErrorAs(t, err, &usageErr)
}

func Test_ExportMissingSourceDir(t *testing.T) {
	_, err := execute(t, "export", filepath.Join(t.TempDir(), "x"), "--src-dir", filepath.Join(t.TempDir(), "missing"), "--version", "1")
	var cmdErr *command.Error
	require.ErrorAs(t, err, &cmdErr)
	require.ErrorContains(t, err, "cannot find the src directory")
}

func Test_Classify(t *testing.T) {
	src := makeSource(t)

	stdout, err := execute(t, "classify", "--src-dir", src, "--remove-nonessential-files",
		"base/a.cc", "v8/test/mjsunit/x.js", "v8/test/BUILD.gn", ".git/HEAD", "third_party/rust-src/lib/.git")
	require.NoError(t, err)
	require.Equal(t, []string{
		"INCLUDE\tdefault\tbase/a.cc",
		"EXCLUDE\tnonessential-content\tv8/test/mjsunit/x.js",
		"INCLUDE\tkeep-marker\tv8/test/BUILD.gn",
		"EXCLUDE\tgit-metadata\t.git",
		"INCLUDE\tdefault\tthird_party/rust-src/lib/.git",
	}, strings.Split(strings.TrimSpace(stdout), "\n"))
}

func Test_ClassifyWithRulesFile(t *testing.T) {
	src := makeSource(t)
	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("exclude: ['**/*.cc']\n"), 0o644))

	stdout, err := execute(t, "classify", "--src-dir", src, "--rules", rulesFile, "base/a.cc", "v8/test/mjsunit/x.js")
	require.NoError(t, err)
	require.Equal(t, []string{
		"EXCLUDE\texclude-glob\tbase/a.cc",
		"INCLUDE\tdefault\tv8/test/mjsunit/x.js",
	}, strings.Split(strings.TrimSpace(stdout), "\n"))

	require.NoError(t, os.WriteFile(rulesFile, []byte("excludes: []\n"), 0o644))
	_, err = execute(t, "classify", "--src-dir", src, "--rules", rulesFile, "base/a.cc")
	require.Error(t, err)
}

func Test_Checksum(t *testing.T) {
	src := makeSource(t)
	stdout, err := execute(t, "checksum", src)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "xxh3:"))

	_, err = execute(t, "checksum", filepath.Join(src, "missing"))
	var cmdErr *command.Error
	require.True(t, errors.As(err, &cmdErr))
}

func Test_Version(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, Version+"\n", stdout)
}

func Test_RunExitCodes(t *testing.T) {
	src := makeSource(t)

	// an xz that consumes its input and fails
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "xz"), []byte("#!/bin/sh\ncat >/dev/null\nexit 2\n"), 0o755))

	type testcase struct {
		args       []string
		brokenXZ   bool
		code       int
		wantStdout string
		wantStderr []string
	}
	testcases := map[string]testcase{
		"version": {
			args:       []string{"version"},
			wantStdout: Version + "\n",
		},
		"export": {
			args: []string{"export", filepath.Join(t.TempDir(), "ok"), "--src-dir", src, "--version", "1", "--compression", "zstd"},
		},
		"no version": {
			args:       []string{"export", filepath.Join(t.TempDir(), "x"), "--src-dir", src},
			code:       1,
			wantStderr: []string{exporter.ErrNoVersion.Error(), "Usage:"},
		},
		"compressor exits with 2": {
			args:       []string{"export", filepath.Join(t.TempDir(), "x"), "--src-dir", src, "--version", "1"},
			brokenXZ:   true,
			code:       1,
			wantStderr: []string{"Command failed"},
		},
		"unknown command": {
			args:       []string{"import"},
			code:       1,
			wantStderr: []string{"unknown command", "Usage:"},
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			if tc.brokenXZ {
				t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
			}

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tc.args, &stdout, &stderr)
			require.Equal(t, tc.code, code, stderr.String())
			if tc.wantStdout != "" {
				require.Equal(t, tc.wantStdout, stdout.String())
			}
			for _, want := range tc.wantStderr {
				require.Contains(t, stderr.String(), want)
			}
			if tc.code != 0 {
				require.NotContains(t, stderr.String(), "Export has been completed")
			}
		})
	}
}
