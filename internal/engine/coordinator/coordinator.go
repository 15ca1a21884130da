// Package coordinator implements the recursive, suspending build algorithm
// described as "want" throughout redux's design: classify a target, probe
// the trace store for a reusable result, and fall back to running its rule,
// all while deduplicating concurrent requests for the same target within one
// build and detecting dependency cycles via an explicit ancestor chain.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ProbeHandler = (*Coordinator)(nil)

// Config bundles every collaborator the coordinator needs. All fields are
// required.
type Config struct {
	Repo      ports.RepoAdapter
	Rules     ports.RuleFinder
	Hasher    ports.Hasher
	Executor  ports.Executor
	Jobserver ports.Jobserver
	Blobs     ports.ContentStore
	Traces    ports.TraceStore
	Log       ports.Logger
	Clock     ports.Clock
	RepoRoot  string
	VCSDir    string
	ProbeAddr string
	BuildID   domain.BuildID
}

// Coordinator owns one build's context and implements both the top-level
// Build entrypoint used by cmd/redux and ports.ProbeHandler, invoked by the
// probe server on behalf of running jobs.
type Coordinator struct {
	cfg Config
	bc  *domain.BuildContext

	mu     sync.Mutex
	jobs   map[domain.JobID]*jobState
	jobSeq atomic.Uint64
}

// New returns a Coordinator ready to serve one build.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		cfg:  cfg,
		bc:   domain.NewBuildContext(cfg.BuildID),
		jobs: make(map[domain.JobID]*jobState),
	}
}

// jobState is the coordinator-side bookkeeping for one running rule process:
// its in-memory tracefile (domain.Job.TentativeDeps), the ancestor chain it
// and its probes inherit, and the running process handle the coordinator
// needs in order to kill it on mid-job cutoff. probeMu serialises probe
// handling per job, per the design note that intra-rule probe parallelism
// is disallowed so dependency ordering stays stable.
type jobState struct {
	probeMu sync.Mutex

	mu          sync.Mutex
	job         domain.Job
	ancestors   domain.AncestorChain
	rj          ports.RunningJob
	cutoffTrace *domain.Trace
}

// Build is the top-level entrypoint used by cmd/redux: build target (given
// repo-root-relative) and return its content digest. It is the exact
// equivalent of a running job's own `want` probe, but with no caller
// tracefile to record into.
func (c *Coordinator) Build(ctx context.Context, target string) (domain.Digest, error) {
	return c.want(ctx, nil, nil, domain.NewPathKey(target))
}

// want is the recursive core. caller is nil for the top-level invocation and
// for trace-validation probes that must not pollute anyone's tracefile; it
// is non-nil when invoked on behalf of a running job's own probe.
func (c *Coordinator) want(ctx context.Context, ancestors domain.AncestorChain, caller *jobState, target domain.PathKey) (domain.Digest, error) {
	if ancestors.Contains(target) {
		err := zerr.With(domain.ErrCycle, "target", target.String())
		return domain.Digest{}, err
	}

	if d, err, ok := c.bc.Resolved(target); ok {
		c.recordDep(caller, target, d, err)
		return d, err
	}

	wait, claimed := c.bc.ClaimOrJoin(target)
	if !claimed {
		<-wait
		d, err := c.bc.ResultOf(target)
		c.recordDep(caller, target, d, err)
		return d, err
	}

	d, err := c.build(ctx, ancestors.Push(target), target)
	c.bc.Commit(target, d, err)
	c.recordDep(caller, target, d, err)
	return d, err
}

// recordDep appends a dependency observation to caller's tracefile. It is a
// no-op when caller is nil (top-level want, or internal trace validation)
// or when the build of target failed — failed builds never appear in a
// committed trace.
func (c *Coordinator) recordDep(caller *jobState, target domain.PathKey, d domain.Digest, err error) {
	if caller == nil || err != nil {
		return
	}
	caller.mu.Lock()
	caller.job.TentativeDeps = append(caller.job.TentativeDeps, domain.SourceDep{Path: target, Digest: d})
	caller.mu.Unlock()
}

func (c *Coordinator) build(ctx context.Context, ancestors domain.AncestorChain, target domain.PathKey) (domain.Digest, error) {
	absPath := c.abs(target)

	tracked, err := c.cfg.Repo.IsTracked(absPath)
	if err != nil {
		return domain.Digest{}, zerr.Wrap(err, "classify target")
	}
	if tracked {
		return c.hashSource(absPath)
	}

	match, err := c.cfg.Rules.Find(absPath)
	if err != nil {
		if _, statErr := os.Stat(absPath); statErr == nil {
			// Untracked but present with no rule: treat as a source anyway,
			// same as plain redo does for any file that merely exists.
			return c.hashSource(absPath)
		}
		return domain.Digest{}, err
	}

	rulePath := match.RulePath
	targetPath := target.String()

	if winner, ok, err := c.probeCacheInitial(ctx, ancestors, rulePath, targetPath); err != nil {
		return domain.Digest{}, err
	} else if ok {
		return c.materialize(ctx, target, winner)
	}

	return c.runJob(ctx, ancestors, target, rulePath, match)
}

func (c *Coordinator) hashSource(absPath string) (domain.Digest, error) {
	d, err := c.cfg.Hasher.Hash(absPath)
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "hash source"), "path", absPath)
	}
	if d.IsMissing() {
		return domain.Digest{}, zerr.With(domain.ErrNoRule, "target", absPath)
	}
	return d, nil
}

// probeCacheInitial looks for a committed trace that validates against the
// live build graph, spec.md 4.1 step 4, before any rule process is spawned.
func (c *Coordinator) probeCacheInitial(ctx context.Context, ancestors domain.AncestorChain, rulePath, targetPath string) (domain.Trace, bool, error) {
	candidates, err := c.cfg.Traces.Candidates(ctx, rulePath, targetPath)
	if err != nil {
		return domain.Trace{}, false, zerr.Wrap(err, "read trace candidates")
	}
	return c.validateCandidates(ctx, ancestors, candidates, nil)
}

// probeCacheMidJob is the fast path behind mid-job cutoff (spec.md 4.4):
// after each dep a running job observes, it narrows candidates with the
// prefix index before paying for recursive validation of the tail.
func (c *Coordinator) probeCacheMidJob(ctx context.Context, ancestors domain.AncestorChain, rulePath, targetPath string, observed []domain.SourceDep) (domain.Trace, bool, error) {
	key := domain.DepsPrefixKey(observed, len(observed))
	candidates, err := c.cfg.Traces.PrefixIndexed(ctx, rulePath, targetPath, key, len(observed))
	if err != nil {
		return domain.Trace{}, false, zerr.Wrap(err, "read prefix-indexed trace candidates")
	}
	return c.validateCandidates(ctx, ancestors, candidates, observed)
}

func (c *Coordinator) validateCandidates(ctx context.Context, ancestors domain.AncestorChain, candidates []domain.Trace, observed []domain.SourceDep) (domain.Trace, bool, error) {
	for _, t := range candidates {
		ok, err := c.validateTrace(ctx, ancestors, t, observed)
		if err != nil {
			return domain.Trace{}, false, err
		}
		if ok {
			return t, true, nil
		}
	}
	return domain.Trace{}, false, nil
}

// validateTrace reports whether t is currently reproducible: its volatility
// has not lapsed, its observed prefix matches exactly, and every dep beyond
// the prefix recursively wants to the same digest t recorded.
func (c *Coordinator) validateTrace(ctx context.Context, ancestors domain.AncestorChain, t domain.Trace, observed []domain.SourceDep) (bool, error) {
	if t.Volatility.Expired(c.cfg.Clock.Now()) {
		return false, nil
	}
	if len(t.Deps) < len(observed) {
		return false, nil
	}
	for i, dep := range observed {
		if t.Deps[i] != dep {
			return false, nil
		}
	}
	for _, dep := range t.Deps[len(observed):] {
		if dep.Path.String() == domain.StdinDep {
			// Not yet observed by the running job; cannot be proven without
			// the job itself reaching its own --stamp call.
			return false, nil
		}
		d, err := c.want(ctx, ancestors, nil, dep.Path)
		if err != nil {
			if errors.Is(err, domain.ErrCycle) || errors.Is(err, domain.ErrNoRule) {
				return false, nil
			}
			return false, err
		}
		if d != dep.Digest {
			return false, nil
		}
	}
	return true, nil
}

// materialize copies winner's output blob into place at target and returns
// its digest.
func (c *Coordinator) materialize(ctx context.Context, target domain.PathKey, winner domain.Trace) (domain.Digest, error) {
	absPath := c.abs(target)

	src, err := c.cfg.Blobs.Open(ctx, winner.OutputDigest)
	if err != nil {
		return domain.Digest{}, zerr.Wrap(err, "open winning blob")
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(absPath), domain.DirPerm); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "create target directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".redux-materialize-*")
	if err != nil {
		return domain.Digest{}, zerr.Wrap(err, "create materialize temp")
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "copy winning blob")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "close materialize temp")
	}
	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "chmod materialized target")
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "rename materialized target into place")
	}

	return winner.OutputDigest, nil
}

func (c *Coordinator) abs(target domain.PathKey) string {
	return filepath.Join(c.cfg.RepoRoot, target.String())
}

func (c *Coordinator) newJobID() domain.JobID {
	n := c.jobSeq.Add(1)
	return domain.JobID(fmt.Sprintf("%s-%d", c.cfg.BuildID, n))
}
