package mirror

import (
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// FingerprintSize is the size of a Fingerprint in bytes. Both supported
// algorithms produce 512 bit digests.
const FingerprintSize = sha512.Size

// hashChunkSize is the size of the reads used to feed a file into the hash.
const hashChunkSize = 32 * 1024

const (
	// SHA512 is the name of the default fingerprint algorithm.
	SHA512 = "sha512"

	// BLAKE2b is the name of the BLAKE2b-512 fingerprint algorithm. It's
	// usually faster than SHA512 on machines without SHA extensions.
	BLAKE2b = "blake2b"
)

// Fingerprint is a digest of the full contents of a file. It's only used to
// check whether two files have the same contents.
type Fingerprint [FingerprintSize]byte

func (fp Fingerprint) String() string {
	return base64.StdEncoding.EncodeToString(fp[:])
}

// Hasher computes Fingerprints for files.
type Hasher struct {
	fs      afero.Fs
	newHash func() hash.Hash
}

// NewHasher returns a Hasher that reads files from `fs` and digests them with
// the named algorithm. An empty algorithm selects SHA512.
func NewHasher(fs afero.Fs, algorithm string) (Hasher, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case "", SHA512:
		newHash = sha512.New
	case BLAKE2b:
		newHash = func() hash.Hash {
			// New512 only fails for keys longer than 64 bytes.
			h, _ := blake2b.New512(nil)
			return h
		}
	default:
		return Hasher{}, errors.New("unknown hash algorithm %q", algorithm)
	}
	return Hasher{fs: fs, newHash: newHash}, nil
}

// Fingerprint returns the fingerprint of the file at `path`.
func (h Hasher) Fingerprint(path string) (Fingerprint, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return Fingerprint{}, errors.WithContext(err, "open")
	}
	defer f.Close()

	digest := h.newHash()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return Fingerprint{}, errors.WithContext(err, "read")
	}

	var fp Fingerprint
	copy(fp[:], digest.Sum(nil))
	return fp, nil
}

// SameContents returns whether the files at `a` and `b` have equal
// fingerprints.
func (h Hasher) SameContents(a, b string) (bool, error) {
	aFp, err := h.Fingerprint(a)
	if err != nil {
		return false, errors.WithContext(err, "hash source")
	}

	bFp, err := h.Fingerprint(b)
	if err != nil {
		return false, errors.WithContext(err, "hash replica")
	}
	return aFp == bFp, nil
}
