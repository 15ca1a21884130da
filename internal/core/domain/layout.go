package domain

import "path/filepath"

const (
	// MetaDirName is the name of the directory, rooted under the repository's
	// VCS metadata directory, that holds all redux state.
	MetaDirName = "redux"

	// BlobsDirName is the name of the content-addressed blob directory.
	BlobsDirName = "blobs"

	// TracesDirName is the name of the trace-store directory.
	TracesDirName = "traces"

	// TmpDirName is the name of the scratch directory used for temp outputs
	// and the probe socket.
	TmpDirName = "tmp"

	// DirPerm is the default permission for redux-owned directories.
	DirPerm = 0o750

	// FilePerm is the default permission for redux-owned files.
	FilePerm = 0o644
)

// MetaPath returns the root of redux's on-disk state given the directory
// that holds the repository's VCS metadata (e.g. ".git").
func MetaPath(vcsDir string) string {
	return filepath.Join(vcsDir, MetaDirName)
}

// BlobsPath returns the content-addressed blob directory.
func BlobsPath(vcsDir string) string {
	return filepath.Join(MetaPath(vcsDir), BlobsDirName)
}

// TracesPath returns the trace-store root directory.
func TracesPath(vcsDir string) string {
	return filepath.Join(MetaPath(vcsDir), TracesDirName)
}

// TmpPath returns the scratch directory for in-progress jobs.
func TmpPath(vcsDir string) string {
	return filepath.Join(MetaPath(vcsDir), TmpDirName)
}
