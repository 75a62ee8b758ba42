package classifier

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type Kind int

const (
	KindOther Kind = iota
	KindRegular
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is one filesystem object visited by the walk.
type Entry struct {
	// Path is the filesystem path as visited.
	Path string
	// RelPath is slash-separated and relative to the source root.
	RelPath string
	Name    string
	Kind    Kind
	Info    fs.FileInfo
	// TargetExists is false only for dangling symlinks.
	TargetExists bool
	// ResolvesToFile is true for regular files and for symlinks pointing at one.
	ResolvesToFile bool
}

// NewEntry stats path without following symlinks. For symlinks the target is resolved
// to learn whether it exists and what it points at.
func NewEntry(path, relPath string) (Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return NewEntryFromInfo(path, relPath, info)
}

func NewEntryFromInfo(path, relPath string, info fs.FileInfo) (Entry, error) {
	e := Entry{
		Path:         path,
		RelPath:      filepath.ToSlash(relPath),
		Name:         filepath.Base(path),
		Info:         info,
		TargetExists: true,
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
		e.Kind = KindRegular
		e.ResolvesToFile = true
	case mode.IsDir():
		e.Kind = KindDir
	case mode&fs.ModeSymlink != 0:
		e.Kind = KindSymlink
		// a link is dangling whenever its target cannot be resolved, not only on ENOENT
		target, err := os.Stat(path)
		if err != nil {
			e.TargetExists = false
			break
		}
		e.ResolvesToFile = target.Mode().IsRegular()
	default:
		e.Kind = KindOther
	}
	return e, nil
}
