package mirror

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// Action is the operation that a Decision asks the Reconciler to perform.
type Action int

const (
	// CreateReplicaDir means the replica directory itself doesn't exist yet.
	// It's always the first decision for its directory pair.
	CreateReplicaDir Action = iota

	// CreateFile means the source file must be copied into the replica.
	CreateFile

	// CreateDir means the source directory must be created in the replica
	// and then reconciled.
	CreateDir

	// UpdateFile means the replica file's contents differ from the source's.
	UpdateFile

	// Unchanged means the replica file already matches the source.
	Unchanged

	// Descend means both sides have a directory with this name, and the pair
	// must be reconciled.
	Descend

	// DeleteFile means the replica file has no source counterpart.
	DeleteFile

	// DeleteDir means the replica directory has no source counterpart.
	DeleteDir

	// Failed means the entry couldn't be classified. Decision.Err holds the
	// cause.
	Failed
)

var actionNames = map[Action]string{
	CreateReplicaDir: "CreateReplicaDir",
	CreateFile:       "CreateFile",
	CreateDir:        "CreateDir",
	UpdateFile:       "UpdateFile",
	Unchanged:        "Unchanged",
	Descend:          "Descend",
	DeleteFile:       "DeleteFile",
	DeleteDir:        "DeleteDir",
	Failed:           "Failed",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Decision is the classification of a single name within a directory pair.
type Decision struct {
	Action Action

	// Name is the base name of the entry. It's empty for CreateReplicaDir.
	Name string

	// Replace is set on CreateFile and CreateDir decisions when the replica
	// has an entry of the other kind under the same name. That entry must be
	// removed before the source entry is created.
	Replace bool

	// Size is the size of the source file for file decisions.
	Size int64

	Err error
}

type entryKind int

const (
	fileEntry entryKind = iota
	dirEntry
	otherEntry
)

func kindOf(fi os.FileInfo) entryKind {
	switch {
	case fi.IsDir():
		return dirEntry
	case fi.Mode().IsRegular():
		return fileEntry
	default:
		return otherEntry
	}
}

// Diff compares the immediate children of `sourceDir` and `replicaDir` and
// returns the decisions needed to make the replica level match the source.
// Source-side decisions come first in name order, followed by the deletions
// in name order.
//
// An error is returned if either directory can't be listed. Failures to
// compare a single pair of files are returned as Failed decisions instead.
func Diff(fs afero.Fs, hasher Hasher, sourceDir, replicaDir string) ([]Decision, error) {
	// afero.ReadDir returns the entries sorted by name.
	sourceEntries, err := afero.ReadDir(fs, sourceDir)
	if err != nil {
		return nil, errors.WithContext(err, "list source")
	}

	var decisions []Decision
	replicaEntries := map[string]os.FileInfo{}
	var replicaNames []string

	replicaInfo, err := fs.Stat(replicaDir)
	switch {
	case os.IsNotExist(err):
		decisions = append(decisions, Decision{Action: CreateReplicaDir})
	case err != nil:
		return nil, errors.WithContext(err, "stat replica")
	case !replicaInfo.IsDir():
		return nil, errors.NotADirectory{Path: replicaDir}
	default:
		listing, err := afero.ReadDir(fs, replicaDir)
		if err != nil {
			return nil, errors.WithContext(err, "list replica")
		}
		for _, fi := range listing {
			replicaEntries[fi.Name()] = fi
			replicaNames = append(replicaNames, fi.Name())
		}
	}

	inSource := map[string]struct{}{}
	for _, src := range sourceEntries {
		name := src.Name()
		inSource[name] = struct{}{}

		// Symlinks and special files aren't mirrored. A replica entry with
		// the same name is left alone.
		srcKind := kindOf(src)
		if srcKind == otherEntry {
			continue
		}

		dst, inReplica := replicaEntries[name]
		switch {
		case !inReplica:
			decisions = append(decisions, createDecision(src))
		case kindOf(dst) != srcKind:
			decision := createDecision(src)
			decision.Replace = true
			decisions = append(decisions, decision)
		case srcKind == dirEntry:
			decisions = append(decisions, Decision{Action: Descend, Name: name})
		default:
			decisions = append(decisions, compareFiles(hasher,
				filepath.Join(sourceDir, name), filepath.Join(replicaDir, name), src))
		}
	}

	for _, name := range replicaNames {
		if _, ok := inSource[name]; ok {
			continue
		}

		action := DeleteFile
		if replicaEntries[name].IsDir() {
			action = DeleteDir
		}
		decisions = append(decisions, Decision{Action: action, Name: name})
	}
	return decisions, nil
}

func createDecision(src os.FileInfo) Decision {
	if src.IsDir() {
		return Decision{Action: CreateDir, Name: src.Name()}
	}
	return Decision{Action: CreateFile, Name: src.Name(), Size: src.Size()}
}

func compareFiles(hasher Hasher, sourcePath, replicaPath string, src os.FileInfo) Decision {
	decision := Decision{Name: src.Name(), Size: src.Size()}
	same, err := hasher.SameContents(sourcePath, replicaPath)
	switch {
	case err != nil:
		decision.Action = Failed
		decision.Err = errors.WithContext(err, "compare")
	case same:
		decision.Action = Unchanged
	default:
		decision.Action = UpdateFile
	}
	return decision
}
