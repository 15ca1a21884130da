// Package repo locates the repository root and distinguishes tracked
// sources from build products by shelling out to git.
package repo

import (
	"bytes"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RepoAdapter = (*Adapter)(nil)

// Adapter implements ports.RepoAdapter against a git checkout.
type Adapter struct{}

// NewAdapter returns an Adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Root implements ports.RepoAdapter.
func (a *Adapter) Root(startDir string) (repoRoot, vcsDir string, err error) {
	root, err := a.run(startDir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", "", zerr.With(domain.ErrNotARepository, "dir", startDir)
	}
	gitDir, err := a.run(startDir, "rev-parse", "--git-dir")
	if err != nil {
		return "", "", zerr.With(domain.ErrNotARepository, "dir", startDir)
	}
	if !strings.HasPrefix(gitDir, "/") {
		gitDir = root + "/" + gitDir
	}
	return root, gitDir, nil
}

// IsTracked implements ports.RepoAdapter.
func (a *Adapter) IsTracked(path string) (bool, error) {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", "--", path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "git ls-files"), "path", path)
	}
	return true, nil
}

func (a *Adapter) run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
