//go:build !unix

package tarwriter

import "io/fs"

func inodeOf(fs.FileInfo) (inode, bool) {
	return inode{}, false
}
