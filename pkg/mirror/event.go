package mirror

import (
	"fmt"
	"time"
)

// EventKind is the type of mutation described by a SyncEvent.
type EventKind int

const (
	// DirCreated means a directory was created in the replica.
	DirCreated EventKind = iota

	// FileCopied means a file that didn't exist in the replica was copied
	// from the source.
	FileCopied

	// FileUpdated means a replica file with stale contents was overwritten.
	FileUpdated

	// FileDeleted means a replica file without a source counterpart was
	// removed.
	FileDeleted

	// DirDeleted means a replica directory without a source counterpart was
	// removed along with all of its contents.
	DirDeleted

	// OperationFailed means the operation for a single entry failed. The
	// entry is skipped until the next pass.
	OperationFailed
)

var eventKindNames = map[EventKind]string{
	DirCreated:      "DirCreated",
	FileCopied:      "FileCopied",
	FileUpdated:     "FileUpdated",
	FileDeleted:     "FileDeleted",
	DirDeleted:      "DirDeleted",
	OperationFailed: "OperationFailed",
}

func (kind EventKind) String() string {
	if name, ok := eventKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(kind))
}

// SyncEvent records one mutation performed on the replica tree.
type SyncEvent struct {
	Kind EventKind

	// SourcePath is the path of the source entry that caused the mutation.
	// It's empty for deletions.
	SourcePath string

	// TargetPath is the path of the replica entry that was mutated.
	TargetPath string

	// Size is the number of bytes written for FileCopied and FileUpdated
	// events.
	Size int64

	Time time.Time

	// Err is the cause of an OperationFailed event.
	Err error
}

// Message returns a human readable description of the event. It always names
// the kind of mutation and the paths involved.
func (ev SyncEvent) Message() string {
	switch ev.Kind {
	case DirCreated:
		return fmt.Sprintf("Created folder: %s", ev.TargetPath)
	case FileCopied:
		return fmt.Sprintf("Copied file: %s -> %s", ev.SourcePath, ev.TargetPath)
	case FileUpdated:
		return fmt.Sprintf("Updated file: %s -> %s", ev.SourcePath, ev.TargetPath)
	case FileDeleted:
		return fmt.Sprintf("Deleted file: %s", ev.TargetPath)
	case DirDeleted:
		return fmt.Sprintf("Deleted folder: %s", ev.TargetPath)
	case OperationFailed:
		if ev.SourcePath == "" {
			return fmt.Sprintf("Failed to sync %s", ev.TargetPath)
		}
		return fmt.Sprintf("Failed to sync %s -> %s", ev.SourcePath, ev.TargetPath)
	}
	return fmt.Sprintf("%s: %s", ev.Kind, ev.TargetPath)
}

func (ev SyncEvent) String() string {
	if ev.Err != nil {
		return fmt.Sprintf("%s: %s", ev.Message(), ev.Err)
	}
	return ev.Message()
}

// Logger consumes the events produced by a reconcile pass.
type Logger interface {
	Record(SyncEvent)
}

// LoggerFunc adapts a function into a Logger.
type LoggerFunc func(SyncEvent)

// Record calls f(ev).
func (f LoggerFunc) Record(ev SyncEvent) {
	f(ev)
}
