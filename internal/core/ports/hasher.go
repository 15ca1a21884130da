package ports

import "go.redux.dev/redux/internal/core/domain"

// Hasher computes content digests of files on disk.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Hash returns the digest of the file at path, or domain.MissingDigest
	// and a nil error if path does not exist.
	Hash(path string) (domain.Digest, error)
}

// Walker enumerates files under a directory tree, used by --sources and
// --outputs reporting.
type Walker interface {
	// Walk calls fn once per regular file found under root, in
	// deterministic lexical order. Walk stops and returns fn's error the
	// first time fn returns a non-nil error.
	Walk(root string, fn func(path string) error) error
}
