package mirror

import (
	"io"
	"time"

	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// copyFile copies the contents, mode, and modification time of `src` to
// `dst`, replacing `dst` if it already exists. It returns the number of bytes
// copied.
func copyFile(fs afero.Fs, src, dst string) (int64, error) {
	srcFile, err := fs.Open(src)
	if err != nil {
		return 0, errors.WithContext(err, "open source")
	}
	defer srcFile.Close()

	fileInfo, err := srcFile.Stat()
	if err != nil {
		return 0, errors.WithContext(err, "stat")
	}

	// The replica may have been made read-only by a previous copy of a
	// read-only source file, so it can't be truncated in place.
	if exists, err := afero.Exists(fs, dst); err != nil {
		return 0, errors.WithContext(err, "check if destination exists")
	} else if exists {
		if err := fs.Remove(dst); err != nil {
			return 0, errors.WithContext(err, "remove stale destination")
		}
	}

	dstFile, err := fs.Create(dst)
	if err != nil {
		return 0, errors.WithContext(err, "open destination")
	}
	defer dstFile.Close()

	if err := fs.Chmod(dst, fileInfo.Mode().Perm()); err != nil {
		return 0, errors.WithContext(err, "set file mode")
	}

	n, err := io.Copy(dstFile, srcFile)
	if err != nil {
		return n, errors.WithContext(err, "copy")
	}

	if err := dstFile.Close(); err != nil {
		return n, errors.WithContext(err, "close destination")
	}

	// Change the modification time as the last step so that it doesn't get
	// reset by other file operations.
	if err := fs.Chtimes(dst, time.Now(), fileInfo.ModTime()); err != nil {
		return n, errors.WithContext(err, "set file modtime")
	}
	return n, nil
}
