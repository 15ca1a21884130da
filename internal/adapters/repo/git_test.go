package repo_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.redux.dev/redux/internal/adapters/repo"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	return dir
}

func TestAdapter_Root(t *testing.T) {
	dir := initRepo(t)

	a := repo.NewAdapter()
	root, vcsDir, err := a.Root(dir)
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolvedDir, resolvedRoot)
	assert.Equal(t, filepath.Join(root, ".git"), vcsDir)
}

func TestAdapter_Root_NotARepo(t *testing.T) {
	dir := t.TempDir()
	a := repo.NewAdapter()
	_, _, err := a.Root(dir)
	require.Error(t, err)
}

func TestAdapter_IsTracked(t *testing.T) {
	dir := initRepo(t)
	path := filepath.Join(dir, "tracked.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	a := repo.NewAdapter()

	tracked, err := a.IsTracked(path)
	require.NoError(t, err)
	assert.False(t, tracked)

	cmd := exec.Command("git", "-C", dir, "add", "tracked.txt")
	require.NoError(t, cmd.Run())

	tracked, err = a.IsTracked(path)
	require.NoError(t, err)
	assert.True(t, tracked)
}
