// Package cas implements the content-addressed blob store backing
// .git/redux/blobs.
package cas

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentStore = (*Store)(nil)

// Store is a filesystem-backed content-addressed blob store, laid out as
// blobs/<digest[0:2]>/<digest[2:]>.
type Store struct {
	root string
}

// NewStore returns a Store rooted at root (typically .git/redux/blobs).
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) pathFor(d domain.Digest) string {
	hex := d.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Put implements ports.ContentStore. It streams r into a temp file while
// hashing it, then renames the temp file into place by digest — so the
// digest of the written content is discovered, not assumed.
func (s *Store) Put(_ context.Context, r io.Reader) (domain.Digest, error) {
	if err := os.MkdirAll(s.root, domain.DirPerm); err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "create blob root"), "root", s.root)
	}

	tmp, err := os.CreateTemp(s.root, "blob-*.tmp")
	if err != nil {
		return domain.Digest{}, zerr.Wrap(err, "create temp blob")
	}
	tmpPath := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	d, err := hashingCopy(tmp, r)
	closeErr := tmp.Close()
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "write temp blob"), "path", tmpPath)
	}
	if closeErr != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(closeErr, "close temp blob"), "path", tmpPath)
	}

	dest := s.pathFor(d)
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "create blob shard dir"), "path", dest)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "commit blob"), "path", dest)
	}
	removeTmp = false

	return d, nil
}

// Open implements ports.ContentStore.
func (s *Store) Open(_ context.Context, d domain.Digest) (io.ReadCloser, error) {
	f, err := os.Open(s.pathFor(d)) //nolint:gosec // path is derived from a content digest, not user input
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrIO, "digest", d.String())
		}
		return nil, zerr.With(zerr.Wrap(err, "open blob"), "digest", d.String())
	}
	return f, nil
}

// Has implements ports.ContentStore.
func (s *Store) Has(_ context.Context, d domain.Digest) (bool, error) {
	_, err := os.Stat(s.pathFor(d))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, zerr.With(zerr.Wrap(err, "stat blob"), "digest", d.String())
}

func hashingCopy(w io.Writer, r io.Reader) (domain.Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, h), r); err != nil {
		return domain.Digest{}, err
	}
	var d domain.Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
