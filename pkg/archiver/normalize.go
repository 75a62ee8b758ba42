package archiver

import (
	"archive/tar"
	"time"
)

const (
	// OwnerWrite is forced on for every record so extracted trees stay writable.
	OwnerWrite = 0o200
	// OwnerName is used for both the user and group name of every record.
	OwnerName = "0"
)

// Normalize returns a copy of hdr with machine- and time-dependent metadata replaced
// by fixed values: ts as modification time, root ownership and owner-write permission.
// All other mode bits are kept so executables stay executable.
func Normalize(hdr *tar.Header, ts time.Time) *tar.Header {
	n := *hdr
	n.ModTime = ts
	n.AccessTime = time.Time{}
	n.ChangeTime = time.Time{}
	n.Uid = 0
	n.Gid = 0
	n.Uname = OwnerName
	n.Gname = OwnerName
	n.Mode |= OwnerWrite
	n.PAXRecords = nil
	n.Format = tar.FormatPAX
	return &n
}
