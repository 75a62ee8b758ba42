package filesys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rogpeppe/go-internal/dirhash"
	"github.com/zeebo/xxh3"
)

// ChecksumExt is appended to an archive path to name its checksum file.
const ChecksumExt = ".xxh3"

func hashXXH3(files []string, open func(string) (io.ReadCloser, error)) (string, error) {
	h := xxh3.New()
	files = append([]string(nil), files...)
	sort.Strings(files)
	for _, file := range files {
		if strings.Contains(file, "\n") {
			return "", errors.New("dirhash: filenames with newlines are not supported")
		}
		r, err := open(file)
		if err != nil {
			return "", err
		}
		hf := xxh3.New()
		_, err = io.Copy(hf, r)
		r.Close()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%x  %s\n", hf.Sum(nil), file)
	}
	return "xxh3:" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// ComputeFileChecksum returns the hex encoded 128-bit xxh3 digest of a file.
func ComputeFileChecksum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	hasher := xxh3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	sum := hasher.Sum128().Bytes()
	return fmt.Sprintf("%x", sum[:]), nil
}

// ComputeDirectoryHash hashes the names and contents of all files below dir.
func ComputeDirectoryHash(dir string) (string, error) {
	return dirhash.HashDir(dir, "", hashXXH3)
}

// WriteChecksumFile stores the checksum of archivePath next to it in the
// "<digest>  <name>" line format and returns the checksum file path.
func WriteChecksumFile(archivePath string) (string, error) {
	sum, err := ComputeFileChecksum(archivePath)
	if err != nil {
		return "", fmt.Errorf("compute checksum: %w", err)
	}
	checksumPath := archivePath + ChecksumExt
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(archivePath))
	if err := os.WriteFile(checksumPath, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("write checksum file: %w", err)
	}
	slog.Info("Checksum created", slog.String("path", checksumPath), slog.String("hex", sum))
	return checksumPath, nil
}
