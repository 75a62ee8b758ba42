package testsupp

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// MakeTree creates files below root. A key ending with "/" creates a directory,
// a value starting with "-> " creates a symlink to the rest of the value,
// anything else is written as file content.
func MakeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		fPath := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(name, "/")))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(fPath, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(fPath), 0o755))
		if target, ok := strings.CutPrefix(content, "-> "); ok {
			require.NoError(t, os.Symlink(target, fPath))
			continue
		}
		require.NoError(t, os.WriteFile(fPath, []byte(content), 0o644))
	}
}

// WriteTimestamp writes the build timestamp file expected by an export of root.
func WriteTimestamp(t *testing.T, root string, relPath string, secs int64) {
	t.Helper()

	fPath := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fPath), 0o755))
	require.NoError(t, os.WriteFile(fPath, []byte(strconv.FormatInt(secs, 10)+"\n"), 0o644))
}
