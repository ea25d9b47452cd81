// Package fswatch notifies when anything in a directory tree changes. It's
// used to start a sync before the polling interval elapses.
package fswatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher sends on C whenever something under the watched root changes.
// Changes are coalesced, so a burst of changes results in at most one pending
// notification.
type Watcher struct {
	C <-chan struct{}

	watcher *fsnotify.Watcher
}

// Watch watches every directory under `root`. Directories created after the
// watch starts are watched as they appear. Changes to the `ignored` paths
// don't notify, which keeps a sync log inside `root` from triggering syncs of
// itself.
func Watch(root string, ignored ...string) (*Watcher, error) {
	paths, err := getPathsToWatch(root)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	onCreate := func(path string) { watchIfDir(watcher, path) }
	combined := combineUpdates(watcher.Events, watcher.Errors, onCreate, ignored)
	return &Watcher{C: combined, watcher: watcher}, nil
}

// Close stops watching. C is closed once all pending events are drained.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// combineUpdates merges `events` into a channel with a single slot, so that
// consumers see at most one pending update. `onCreate` is called with the
// path of every created file or directory. Events for `ignored` paths are
// dropped.
func combineUpdates(events <-chan fsnotify.Event, errs <-chan error,
	onCreate func(string), ignored []string) chan struct{} {

	ignoredSet := map[string]struct{}{}
	for _, path := range ignored {
		ignoredSet[filepath.Clean(path)] = struct{}{}
	}

	combined := make(chan struct{}, 1)
	go func() {
		defer close(combined)
		forwardUpdates(events, errs, onCreate, ignoredSet, combined)
	}()
	return combined
}

func forwardUpdates(events <-chan fsnotify.Event, errs <-chan error,
	onCreate func(string), ignored map[string]struct{}, combined chan<- struct{}) {

	for events != nil || errs != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}

			if _, ok := ignored[filepath.Clean(event.Name)]; ok {
				continue
			}

			if event.Op&fsnotify.Create != 0 && onCreate != nil {
				onCreate(event.Name)
			}

			select {
			case combined <- struct{}{}:
			default:
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WithError(err).Warn("File watcher error. Changes will be " +
				"picked up by the next scheduled sync.")
		}
	}
}

// watchIfDir starts watching `path` and its subdirectories if it's a
// directory. fsnotify doesn't watch directories recursively.
func watchIfDir(watcher *fsnotify.Watcher, path string) {
	fi, err := fs.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}

	paths, err := getPathsToWatch(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("Failed to list new directory")
		return
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			log.WithError(err).WithField("path", path).Debug("Failed to watch new directory")
		}
	}
}

// getPathsToWatch returns `root` and every directory beneath it.
func getPathsToWatch(root string) (paths []string, err error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		return nil, errors.NotADirectory{Path: root}
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if fi.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
