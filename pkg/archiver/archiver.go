package archiver

import (
	"io"

	"github.com/acronis/go-srcexport/pkg/classifier"
)

// Archiver serializes classified entries, in walk order, into an archive container.
type Archiver interface {
	Write(e classifier.Entry, res classifier.Result) error
	Stats() *Stats
	io.Closer
}
