package coordinator_test

import (
	"context"
	"os"
	"sync"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
)

// fakeRepo classifies every path in tracked as a source; everything else is
// a build candidate.
type fakeRepo struct {
	tracked map[string]bool
}

func (r *fakeRepo) Root(startDir string) (string, string, error) { return startDir, startDir, nil }

func (r *fakeRepo) IsTracked(path string) (bool, error) {
	return r.tracked[path], nil
}

// fakeRules resolves exactly the matches it was seeded with; anything else
// is ErrNoRule.
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

// fakeJobserver never blocks and never inherits real file descriptors.
type fakeJobserver struct{}

func (fakeJobserver) Acquire(context.Context) error { return nil }
func (fakeJobserver) Release()                      {}
func (fakeJobserver) MAKEFLAGS() string             { return "-j1" }
func (fakeJobserver) ExtraFiles() []*os.File        { return nil }

// fakeLogger discards everything; tests that care about log output use the
// real logger.Logger with SetOutput instead.
type fakeLogger struct{}

func (fakeLogger) Info(string, ...any)  {}
func (fakeLogger) Warn(string, ...any)  {}
func (fakeLogger) Error(string, ...any) {}

// fakeRunningJob is a RunningJob whose result is fixed at construction, used
// when a rule's work is done synchronously inside fakeExecutor.Start.
type fakeRunningJob struct {
	mu     sync.Mutex
	result ports.JobResult
	killed bool
}

func (j *fakeRunningJob) Pid() int { return 1 }

func (j *fakeRunningJob) Kill() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.killed = true
	j.result = ports.JobResult{Killed: true}
	return nil
}

func (j *fakeRunningJob) Wait() (ports.JobResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, nil
}

// ruleBehavior is what a fake rule "does": write bytes to its temp output
// path and/or issue probes back into the coordinator, then report how the
// process would have exited.
type ruleBehavior func(spec ports.JobSpec) ports.JobResult

// fakeExecutor runs a rule's behavior synchronously inside Start, rather
// than spawning a real process. Tests register one behavior per rule path.
type fakeExecutor struct {
	mu       sync.Mutex
	behavior map[string]ruleBehavior
	starts   map[string]int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		behavior: make(map[string]ruleBehavior),
		starts:   make(map[string]int),
	}
}

func (e *fakeExecutor) on(rulePath string, b ruleBehavior) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.behavior[rulePath] = b
}

func (e *fakeExecutor) startCount(rulePath string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts[rulePath]
}

func (e *fakeExecutor) Start(_ context.Context, spec ports.JobSpec) (ports.RunningJob, error) {
	e.mu.Lock()
	e.starts[spec.RulePath]++
	b := e.behavior[spec.RulePath]
	e.mu.Unlock()

	var result ports.JobResult
	if b != nil {
		result = b(spec)
	}
	return &fakeRunningJob{result: result}, nil
}

// fakeTraceStore lets a test control step-4 (Candidates) and mid-job-cutoff
// (PrefixIndexed) probes independently, which the real trace.Store cannot
// do since both read from the same committed files.
type fakeTraceStore struct {
	mu         sync.Mutex
	candidates []domain.Trace
	prefixed   []domain.Trace
	committed  []domain.Trace
}

func (s *fakeTraceStore) Candidates(context.Context, string, string) ([]domain.Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Trace(nil), s.candidates...), nil
}

func (s *fakeTraceStore) PrefixIndexed(_ context.Context, _, _ string, key uint64, prefixLen int) ([]domain.Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Trace
	for _, t := range s.prefixed {
		if len(t.Deps) < prefixLen {
			continue
		}
		if domain.DepsPrefixKey(t.Deps, prefixLen) == key {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTraceStore) Commit(_ context.Context, t domain.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, t)
	return nil
}

func (s *fakeTraceStore) Remove(context.Context, string, string) error {
	return nil
}
