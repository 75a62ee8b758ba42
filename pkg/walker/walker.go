// Package walker enumerates a source tree depth-first and classifies every entry.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/acronis/go-srcexport/pkg/classifier"
	"github.com/acronis/go-srcexport/pkg/rules"
)

type Mode int

const (
	// Full walks the whole source root.
	Full Mode = iota
	// TestData walks only the test data directories of the rule set.
	TestData
)

func (m Mode) String() string {
	if m == TestData {
		return "test-data"
	}
	return "full"
}

// VisitFunc receives entries in walk order. Returning an error aborts the walk.
type VisitFunc func(e classifier.Entry, res classifier.Result) error

type Walker struct {
	classifier *classifier.Classifier
	rules      *rules.RuleSet
	onMissing  func(path string)
}

type Option func(*Walker)

// WithMissingDirHandler is called for every test data directory absent from the source tree.
func WithMissingDirHandler(fn func(path string)) Option {
	return func(w *Walker) {
		w.onMissing = fn
	}
}

func New(rs *rules.RuleSet, trim bool, opts ...Option) *Walker {
	w := &Walker{
		classifier: classifier.New(rs, trim),
		rules:      rs,
		onMissing: func(path string) {
			slog.Warn("Directory not present, skipping", slog.String("path", path))
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run walks srcDir according to mode.
func (w *Walker) Run(srcDir string, mode Mode, fn VisitFunc) error {
	if mode == Full {
		return w.Walk(srcDir, "", fn)
	}

	for _, dir := range w.rules.TestDirs() {
		testDir := filepath.Join(srcDir, filepath.FromSlash(dir))
		info, err := os.Stat(testDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", testDir, err)
		}
		if err != nil || !info.IsDir() {
			// depends on the milestone being exported
			w.onMissing(testDir)
			continue
		}
		if err := w.Walk(testDir, dir, fn); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits root and everything below it, directories before their children and
// siblings in lexical order. relRoot is root's path relative to the source root;
// an empty relRoot means root is the source root. Excluded directories are not descended.
func (w *Walker) Walk(root, relRoot string, fn VisitFunc) error {
	if err := filepath.WalkDir(root, func(fsPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, fsPath)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", fsPath, err)
		}
		if relRoot != "" {
			rel = filepath.Join(filepath.FromSlash(relRoot), rel)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", fsPath, err)
		}
		e, err := classifier.NewEntryFromInfo(fsPath, rel, info)
		if err != nil {
			return err
		}

		res := w.classifier.Classify(e)
		if err := fn(e, res); err != nil {
			return err
		}

		if res.Decision == classifier.Exclude && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}
