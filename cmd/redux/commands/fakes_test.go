package commands_test

import (
	"context"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
)

type fakeRepo struct {
	root    string
	tracked map[string]bool
}

func (r *fakeRepo) Root(string) (string, string, error) { return r.root, r.root + "/.git", nil }

func (r *fakeRepo) IsTracked(path string) (bool, error) {
	return r.tracked[path], nil
}

type fakeRules struct {
	matches map[string]ports.RuleMatch
}

func (r *fakeRules) Find(targetPath string) (ports.RuleMatch, error) {
	m, ok := r.matches[targetPath]
	if !ok {
		return ports.RuleMatch{}, domain.ErrNoRule
	}
	return m, nil
}

type fakeTraceStore struct {
	candidates map[string][]domain.Trace
	removed    []string
}

func key(rulePath, targetPath string) string { return rulePath + "\x00" + targetPath }

func (s *fakeTraceStore) Candidates(_ context.Context, rulePath, targetPath string) ([]domain.Trace, error) {
	return s.candidates[key(rulePath, targetPath)], nil
}

func (s *fakeTraceStore) PrefixIndexed(context.Context, string, string, uint64, int) ([]domain.Trace, error) {
	return nil, nil
}

func (s *fakeTraceStore) Commit(context.Context, domain.Trace) error { return nil }

func (s *fakeTraceStore) Remove(_ context.Context, rulePath, targetPath string) error {
	s.removed = append(s.removed, key(rulePath, targetPath))
	delete(s.candidates, key(rulePath, targetPath))
	return nil
}

type fakeWalker struct {
	files []string
}

func (w *fakeWalker) Walk(_ string, fn func(path string) error) error {
	for _, f := range w.files {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
