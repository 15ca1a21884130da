package fs

import (
	"errors"
	"os"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes SHA-256 content digests of files on disk, the same digest
// space the content store and trace fingerprints use.
type Hasher struct{}

// NewHasher returns a Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash implements ports.Hasher.
func (h *Hasher) Hash(path string) (domain.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the build graph, not untrusted input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.MissingDigest, nil
		}
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "open for hashing"), "path", path)
	}
	defer f.Close() //nolint:errcheck

	d, err := domain.DigestReader(f)
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "hash file"), "path", path)
	}
	return d, nil
}
