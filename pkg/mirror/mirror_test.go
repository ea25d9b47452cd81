package mirror

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// dirMarker is the value used by readTree for directories.
const dirMarker = "<dir>"

// writeTree creates the given files and directories in `fs`. Paths that end
// in a slash are created as directories.
func writeTree(t *testing.T, fs afero.Fs, root string, tree map[string]string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(root, 0755))

	var paths []string
	for path := range tree {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fullPath := filepath.Join(root, path)
		if strings.HasSuffix(path, "/") {
			require.NoError(t, fs.MkdirAll(fullPath, 0755))
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, afero.WriteFile(fs, fullPath, []byte(tree[path]), 0644))
	}
}

// readTree returns the contents of every file under `root`, keyed by its path
// relative to `root`. Directories map to dirMarker.
func readTree(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if fi.IsDir() {
			tree[relPath+"/"] = dirMarker
			return nil
		}

		contents, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		tree[relPath] = string(contents)
		return nil
	})
	require.NoError(t, err)
	return tree
}

// messages returns the message of each event, which identifies its kind and
// paths.
func messages(events []SyncEvent) (msgs []string) {
	for _, ev := range events {
		msgs = append(msgs, ev.Message())
	}
	return msgs
}

func mustHasher(t *testing.T, fs afero.Fs) Hasher {
	t.Helper()
	hasher, err := NewHasher(fs, SHA512)
	require.NoError(t, err)
	return hasher
}

// failingFs fails to open the paths in `failOpen`. All other operations are
// passed through to the underlying filesystem.
type failingFs struct {
	afero.Fs
	failOpen map[string]struct{}
}

func (fs failingFs) Open(name string) (afero.File, error) {
	if _, ok := fs.failOpen[name]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fs.Fs.Open(name)
}
