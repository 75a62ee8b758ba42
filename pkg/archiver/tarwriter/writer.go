// Package tarwriter streams classified source entries into a tar container.
package tarwriter

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/acronis/go-srcexport/pkg/archiver"
	"github.com/acronis/go-srcexport/pkg/classifier"
)

// Options configures a Writer. It replaces any setup after construction.
type Options struct {
	// Timestamp is the modification time of every record.
	Timestamp time.Time
	// BaseName is the archive root directory; the walk root is renamed to it.
	BaseName string
	// Verbose enables one report line per entry: "A\t<path>" or "D\t<path>".
	Verbose bool
	// Report receives verbose lines. Defaults to os.Stdout.
	Report io.Writer
}

type inode struct {
	dev, ino uint64
}

type tarWriter struct {
	tw    *tar.Writer
	opts  Options
	stats *archiver.Stats
	// archive names of written regular files that have more than one link
	links map[inode]string
}

var _ archiver.Archiver = (*tarWriter)(nil)

// New returns an archiver writing an uncompressed tar stream to w.
// Closing it terminates the stream but leaves w open.
func New(w io.Writer, opts Options) *tarWriter {
	if opts.Report == nil {
		opts.Report = os.Stdout
	}
	return &tarWriter{
		tw:    tar.NewWriter(w),
		opts:  opts,
		stats: archiver.NewStats(),
		links: map[inode]string{},
	}
}

func (wr *tarWriter) Stats() *archiver.Stats {
	return wr.stats
}

func (wr *tarWriter) Close() error {
	if err := wr.tw.Close(); err != nil {
		return fmt.Errorf("close tar stream: %w", err)
	}
	return nil
}

func (wr *tarWriter) Write(e classifier.Entry, res classifier.Result) error {
	if res.Decision == classifier.Exclude {
		wr.stats.AddSkipped(res.Rule)
		return wr.report("D", e.Path)
	}

	if err := wr.report("A", e.Path); err != nil {
		return err
	}
	return wr.writeEntry(e)
}

func (wr *tarWriter) report(action, name string) error {
	if !wr.opts.Verbose {
		return nil
	}
	if _, err := fmt.Fprintf(wr.opts.Report, "%s\t%s\n", action, name); err != nil {
		return fmt.Errorf("report entry: %w", err)
	}
	return nil
}

// ArchiveName maps a source-relative path to its name inside the archive.
func ArchiveName(baseName, relPath string) string {
	return path.Join(baseName, relPath)
}

func (wr *tarWriter) writeEntry(e classifier.Entry) error {
	var link string
	if e.Kind == classifier.KindSymlink {
		target, err := os.Readlink(e.Path)
		if err != nil {
			return fmt.Errorf("read link %s: %w", e.Path, err)
		}
		link = target
	}

	header, err := tar.FileInfoHeader(e.Info, link)
	if err != nil {
		return fmt.Errorf("create file info header for %s: %w", e.Path, err)
	}

	// FileInfoHeader only takes the base name
	header.Name = ArchiveName(wr.opts.BaseName, e.RelPath)
	if e.Kind == classifier.KindDir {
		header.Name += "/"
	}
	header = archiver.Normalize(header, wr.opts.Timestamp)

	if e.Kind == classifier.KindRegular {
		if id, ok := inodeOf(e.Info); ok {
			if first, seen := wr.links[id]; seen {
				header.Typeflag = tar.TypeLink
				header.Linkname = first
				header.Size = 0
			} else {
				wr.links[id] = header.Name
			}
		}
	}

	if err := wr.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header for %s: %w", header.Name, err)
	}

	if header.Typeflag != tar.TypeReg {
		wr.stats.AddWritten(0)
		return nil
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Path, err)
	}
	defer f.Close()

	n, err := io.Copy(wr.tw, f)
	if err != nil {
		return fmt.Errorf("write content of %s: %w", e.Path, err)
	}
	wr.stats.AddWritten(n)
	return nil
}
