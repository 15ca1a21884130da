// Package ports defines the interfaces the build coordinator depends on,
// implemented by internal/adapters.
package ports

import (
	"context"
	"io"

	"go.redux.dev/redux/internal/core/domain"
)

// ContentStore is the content-addressed blob store backing .git/redux/blobs.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ContentStore interface {
	// Put stores the bytes read from r and returns their digest. Put is
	// idempotent: storing the same content twice is not an error.
	Put(ctx context.Context, r io.Reader) (domain.Digest, error)

	// Open returns a reader over the blob with the given digest.
	Open(ctx context.Context, d domain.Digest) (io.ReadCloser, error)

	// Has reports whether a blob with the given digest is present.
	Has(ctx context.Context, d domain.Digest) (bool, error)
}

// TraceStore persists and queries committed traces under .git/redux/traces.
type TraceStore interface {
	// Candidates returns every trace committed for (rulePath, targetPath),
	// newest first by the tie-break rule: descending commit mtime, then
	// ascending fingerprint as a deterministic tie-break when mtimes match.
	Candidates(ctx context.Context, rulePath, targetPath string) ([]domain.Trace, error)

	// Commit persists t atomically: write to a temp file, fsync, then
	// rename into place.
	Commit(ctx context.Context, t domain.Trace) error

	// PrefixIndexed reports whether any committed trace for (rulePath,
	// targetPath) has a dependency prefix whose DepsPrefixKey equals key,
	// returning the full candidate set that matched so the caller can
	// validate each one recursively. This never claims a hit is valid by
	// itself — it only narrows the candidate set.
	PrefixIndexed(ctx context.Context, rulePath, targetPath string, key uint64, prefixLen int) ([]domain.Trace, error)

	// Remove deletes every committed trace for (rulePath, targetPath). Used
	// by `redux --clean`; it never touches the content-addressed blob
	// store, consistent with GC being out of scope for the core engine.
	Remove(ctx context.Context, rulePath, targetPath string) error
}
