package fs_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	reduxfs "go.redux.dev/redux/internal/adapters/fs"
	"go.redux.dev/redux/internal/core/domain"
)

func TestWalker_Walk_SkipsGitDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("a"), domain.FilePerm))

	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(gitDir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("x"), domain.FilePerm))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.c"), []byte("b"), domain.FilePerm))

	w := reduxfs.NewWalker()
	var found []string
	err := w.Walk(dir, func(path string) error {
		rel, _ := filepath.Rel(dir, path)
		found = append(found, rel)
		return nil
	})
	require.NoError(t, err)

	sort.Strings(found)
	assert.Equal(t, []string{"a.c", filepath.Join("sub", "b.c")}, found)
}

func TestWalker_Walk_PropagatesCallbackError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("a"), domain.FilePerm))

	w := reduxfs.NewWalker()
	boom := assert.AnError
	err := w.Walk(dir, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}
