package domain

import "path/filepath"

// PathKey is a repository-relative, normalized path. Two PathKeys are equal
// iff their normalized forms are bytewise identical; the underlying
// InternedString gives that comparison the speed of a pointer compare.
type PathKey struct {
	is InternedString
}

// NewPathKey normalizes p (cleaning it and forcing forward slashes) and
// interns the result.
func NewPathKey(p string) PathKey {
	clean := filepath.ToSlash(filepath.Clean(p))
	clean = trimLeadingCurDir(clean)
	return PathKey{is: NewInternedString(clean)}
}

func trimLeadingCurDir(p string) string {
	for len(p) >= 2 && p[0] == '.' && p[1] == '/' {
		p = p[2:]
	}
	if p == "." {
		return ""
	}
	return p
}

// String returns the normalized path.
func (k PathKey) String() string {
	return k.is.String()
}

// GobEncode implements gob.GobEncoder, so that traces holding PathKeys can
// be persisted by the trace store.
func (k PathKey) GobEncode() ([]byte, error) {
	return []byte(k.String()), nil
}

// GobDecode implements gob.GobDecoder.
func (k *PathKey) GobDecode(b []byte) error {
	*k = NewPathKey(string(b))
	return nil
}

// Empty reports whether the key refers to the repository root itself.
func (k PathKey) Empty() bool {
	return k.is.String() == ""
}
