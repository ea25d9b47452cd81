package mirror

import (
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// dirMode is the mode used for directories created in the replica.
const dirMode = 0755

// Reconciler makes replica trees match source trees.
type Reconciler struct {
	fs     afero.Fs
	hasher Hasher
	logger Logger
	clock  clockwork.Clock
}

// NewReconciler returns a Reconciler that operates on `fs`, and reports each
// event to `logger` as soon as it happens. `logger` may be nil.
func NewReconciler(fs afero.Fs, hasher Hasher, logger Logger) *Reconciler {
	return &Reconciler{
		fs:     fs,
		hasher: hasher,
		logger: logger,
		clock:  clockwork.NewRealClock(),
	}
}

// WithClock sets the clock used to timestamp events.
func (r *Reconciler) WithClock(clock clockwork.Clock) *Reconciler {
	r.clock = clock
	return r
}

// dirPair is a pending or in-progress directory pair. Once the pair has been
// diffed, `next` tracks the next decision to apply so that the pair can be
// resumed after one of its subdirectories has been fully reconciled.
type dirPair struct {
	source, replica string

	diffed    bool
	decisions []Decision
	next      int
}

// Reconcile makes the tree rooted at `replicaDir` an exact copy of the tree
// rooted at `sourceDir`, and returns the events for every mutation in the
// order they were performed.
//
// Directories are visited depth-first in pre-order. A pending stack of
// directory pairs is used rather than recursion so that deep trees don't grow
// the goroutine stack.
func (r *Reconciler) Reconcile(sourceDir, replicaDir string) []SyncEvent {
	var events []SyncEvent
	emit := func(ev SyncEvent) {
		ev.Time = r.clock.Now()
		events = append(events, ev)
		if r.logger != nil {
			r.logger.Record(ev)
		}
	}

	stack := []*dirPair{{source: sourceDir, replica: replicaDir}}
	for len(stack) > 0 {
		pair := stack[len(stack)-1]

		if !pair.diffed {
			pair.diffed = true
			decisions, err := Diff(r.fs, r.hasher, pair.source, pair.replica)
			if err != nil {
				// The whole subtree is skipped until the next pass.
				emit(SyncEvent{
					Kind:       OperationFailed,
					SourcePath: pair.source,
					TargetPath: pair.replica,
					Err:        errors.WithContext(err, "diff"),
				})
				stack = stack[:len(stack)-1]
				continue
			}
			pair.decisions = decisions
		}

		if child := r.applyDecisions(pair, emit); child != nil {
			stack = append(stack, child)
		} else {
			stack = stack[:len(stack)-1]
		}
	}
	return events
}

// applyDecisions applies the decisions of `pair` in order until a
// subdirectory pair must be reconciled, and returns that pair. It returns nil
// once every decision has been applied.
func (r *Reconciler) applyDecisions(pair *dirPair, emit func(SyncEvent)) *dirPair {
	for pair.next < len(pair.decisions) {
		decision := pair.decisions[pair.next]
		pair.next++

		source := filepath.Join(pair.source, decision.Name)
		replica := filepath.Join(pair.replica, decision.Name)

		switch decision.Action {
		case CreateReplicaDir:
			if err := r.fs.MkdirAll(pair.replica, dirMode); err != nil {
				emit(SyncEvent{
					Kind:       OperationFailed,
					SourcePath: pair.source,
					TargetPath: pair.replica,
					Err:        errors.WithContext(err, "create directory"),
				})
				// Nothing else at this level can succeed without the
				// directory.
				return nil
			}
			emit(SyncEvent{Kind: DirCreated, SourcePath: pair.source, TargetPath: pair.replica})

		case CreateFile, UpdateFile:
			kind := FileCopied
			if decision.Action == UpdateFile {
				kind = FileUpdated
			}

			if decision.Replace {
				if err := r.fs.RemoveAll(replica); err != nil {
					emit(failedEvent(source, replica, errors.WithContext(err, "remove mismatched directory")))
					continue
				}
			}

			n, err := copyFile(r.fs, source, replica)
			if err != nil {
				emit(failedEvent(source, replica, errors.WithContext(err, "copy file")))
				continue
			}
			emit(SyncEvent{Kind: kind, SourcePath: source, TargetPath: replica, Size: n})

		case CreateDir:
			if decision.Replace {
				if err := r.fs.Remove(replica); err != nil {
					emit(failedEvent(source, replica, errors.WithContext(err, "remove mismatched file")))
					continue
				}
			}

			if err := r.fs.Mkdir(replica, dirMode); err != nil {
				emit(failedEvent(source, replica, errors.WithContext(err, "create directory")))
				continue
			}
			emit(SyncEvent{Kind: DirCreated, SourcePath: source, TargetPath: replica})
			return &dirPair{source: source, replica: replica}

		case Descend:
			return &dirPair{source: source, replica: replica}

		case DeleteFile:
			if err := r.fs.Remove(replica); err != nil {
				emit(failedEvent("", replica, errors.WithContext(err, "delete file")))
				continue
			}
			emit(SyncEvent{Kind: FileDeleted, TargetPath: replica})

		case DeleteDir:
			if err := r.fs.RemoveAll(replica); err != nil {
				emit(failedEvent("", replica, errors.WithContext(err, "delete directory")))
				continue
			}
			emit(SyncEvent{Kind: DirDeleted, TargetPath: replica})

		case Failed:
			emit(failedEvent(source, replica, decision.Err))

		case Unchanged:
		}
	}
	return nil
}

func failedEvent(source, replica string, err error) SyncEvent {
	return SyncEvent{
		Kind:       OperationFailed,
		SourcePath: source,
		TargetPath: replica,
		Err:        err,
	}
}
