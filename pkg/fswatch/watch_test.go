package fswatch

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/dirmirror/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	tests := []struct {
		name     string
		dirs     []string
		files    []string
		root     string
		expPaths []string
		expError error
	}{
		{
			name:  "Nested directories",
			dirs:  []string{"/src", "/src/app", "/src/app/controllers", "/src/tests"},
			files: []string{"/src/package.json", "/src/app/controllers/index.js", "/src/tests/test.js"},
			root:  "/src",
			expPaths: []string{"/src", "/src/app", "/src/app/controllers",
				"/src/tests"},
		},
		{
			name:     "Empty root",
			dirs:     []string{"/src"},
			root:     "/src",
			expPaths: []string{"/src"},
		},
		{
			name:     "Missing root",
			root:     "/src",
			expError: errors.FileNotFound{Path: "/src"},
		},
		{
			name:     "Root is a file",
			files:    []string{"/src"},
			root:     "/src",
			expError: errors.NotADirectory{Path: "/src"},
		},
	}

	for _, test := range tests {
		fs = afero.NewMemMapFs()
		for _, dir := range test.dirs {
			assert.NoError(t, fs.Mkdir(dir, 0755))
		}
		for _, file := range test.files {
			assert.NoError(t, afero.WriteFile(fs, file, []byte("testfile"), 0644))
		}

		paths, err := getPathsToWatch(test.root)
		if test.expError != nil {
			assert.Equal(t, test.expError, errors.RootCause(err), test.name)
			continue
		}
		assert.NoError(t, err, test.name)

		// Sort for consistency.
		sort.Strings(test.expPaths)
		sort.Strings(paths)
		assert.Equal(t, test.expPaths, paths, test.name)
	}
}

func TestCombineUpdates(t *testing.T) {
	t.Parallel()

	updates := make(chan fsnotify.Event, 1024)
	addEvents := func(num int) {
		for i := 0; i < num; i++ {
			updates <- fsnotify.Event{}
		}
	}

	// Seed with events.
	numUpdates := 100
	addEvents(numUpdates)
	combined := combineUpdates(updates, nil, nil, nil)

	// Assert that the events are being combined.
	numCombined := countEvents(combined)
	assert.True(t, numCombined < numUpdates,
		"expected less combined events (%d) than %d", numCombined, numUpdates)

	// Add more events.
	addEvents(100)
	<-combined

	// Closing the input closes the output.
	close(updates)
	for range combined {
	}
}

func TestCombineUpdatesOnCreate(t *testing.T) {
	t.Parallel()

	updates := make(chan fsnotify.Event, 3)
	errs := make(chan error, 1)

	var lock sync.Mutex
	var created []string
	onCreate := func(path string) {
		lock.Lock()
		defer lock.Unlock()
		created = append(created, path)
	}

	updates <- fsnotify.Event{Name: "/src/new", Op: fsnotify.Create}
	updates <- fsnotify.Event{Name: "/src/changed", Op: fsnotify.Write}
	errs <- errors.New("queue overflow")
	updates <- fsnotify.Event{Name: "/src/dir", Op: fsnotify.Create}
	close(updates)
	close(errs)

	combined := combineUpdates(updates, errs, onCreate, nil)
	for range combined {
	}

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, []string{"/src/new", "/src/dir"}, created)
}

func TestCombineUpdatesIgnored(t *testing.T) {
	t.Parallel()

	updates := make(chan fsnotify.Event, 4)
	var created []string
	onCreate := func(path string) { created = append(created, path) }

	updates <- fsnotify.Event{Name: "/src/sync.log", Op: fsnotify.Create}
	updates <- fsnotify.Event{Name: "/src/sync.log", Op: fsnotify.Write}
	updates <- fsnotify.Event{Name: "/src/./sync.log", Op: fsnotify.Write}
	close(updates)

	var notified int
	for range combineUpdates(updates, nil, onCreate, []string{"/src/sync.log"}) {
		notified++
	}
	assert.Zero(t, notified)
	assert.Empty(t, created)
}

func TestWatchIgnoresPaths(t *testing.T) {
	fs = afero.NewOsFs()
	root := t.TempDir()
	logFile := filepath.Join(root, "sync.log")

	watcher, err := Watch(root, logFile)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(logFile, []byte("[2026-10-19 14:03:07] line\n"), 0644))
	select {
	case <-watcher.C:
		t.Fatal("a change to an ignored path started a sync")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "data"), []byte("x"), 0644))
	select {
	case <-watcher.C:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for a change to a watched path")
	}
}

func TestWatch(t *testing.T) {
	fs = afero.NewOsFs()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))

	watcher, err := Watch(root)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "file"), []byte("x"), 0644))
	select {
	case <-watcher.C:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for a change in a subdirectory")
	}

	assert.NoError(t, watcher.Close())
	for range watcher.C {
	}
}

func countEvents(c chan struct{}) (n int) {
	// Block until the first event.
	<-c
	n++

	// Count the number of events until there hasn't been any new events in 500
	// milliseconds.
	for {
		select {
		case <-c:
			n++
		case <-time.After(500 * time.Millisecond):
			return n
		}
	}
}
