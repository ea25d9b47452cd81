package driver

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// Lock guarantees that only one dirmirror process writes to a replica root at
// a time. The lock file lives outside the replica, since anything inside the
// replica that isn't in the source would be deleted.
type Lock struct {
	flock *flock.Flock
}

// LockPath returns the path of the lock file for `replica`.
func LockPath(replica string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(replica)))
	return filepath.Join(os.TempDir(), fmt.Sprintf("dirmirror-%x.lock", sum[:8]))
}

// AcquireLock locks `replica` for this process. It fails immediately if
// another process holds the lock.
func AcquireLock(replica string) (*Lock, error) {
	fl := flock.New(LockPath(replica))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.WithContext(err, "lock replica")
	}

	if !locked {
		return nil, errors.NewFriendlyError("Another dirmirror process is "+
			"already syncing into %q.\nLock file: %s", replica, fl.Path())
	}
	return &Lock{flock: fl}, nil
}

// Release unlocks the replica. The lock file is left in place: removing it
// would let one process lock the old file while another creates and locks a
// new one at the same path.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return errors.WithContext(err, "unlock replica")
	}
	return nil
}
