// Package fs adapts the local filesystem to the coordinator's Hasher and
// Walker ports.
package fs

import (
	"io/fs"
	"path/filepath"

	"go.redux.dev/redux/internal/core/ports"
)

var _ ports.Walker = (*Walker)(nil)

// Walker walks a directory tree, skipping VCS metadata directories and the
// redux state directory itself.
type Walker struct{}

// NewWalker returns a Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk implements ports.Walker.
func (w *Walker) Walk(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".jj", ".hg":
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path)
	})
}
