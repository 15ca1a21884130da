package coordinator

import (
	"context"
	"os"
	"path/filepath"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

// runJob is spec.md 4.1 step 5: the trace-store miss path. It acquires a
// jobserver token, spawns the rule, and interprets its verdict.
func (c *Coordinator) runJob(ctx context.Context, ancestors domain.AncestorChain, target domain.PathKey, rulePath string, match ports.RuleMatch) (domain.Digest, error) {
	jobID := c.newJobID()

	tmpDir := domain.TmpPath(c.cfg.VCSDir)
	if err := os.MkdirAll(tmpDir, domain.DirPerm); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "create job scratch directory")
	}
	tmpPath := filepath.Join(tmpDir, string(jobID)+".tmp")

	js := &jobState{
		ancestors: ancestors,
		job: domain.Job{
			ID:             jobID,
			BuildID:        c.cfg.BuildID,
			TargetPath:     target,
			RulePath:       rulePath,
			TempOutputPath: tmpPath,
			Verdict:        domain.VerdictRunning,
		},
	}
	c.mu.Lock()
	c.jobs[jobID] = js
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.jobs, jobID)
		c.mu.Unlock()
	}()

	if err := c.cfg.Jobserver.Acquire(ctx); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "acquire jobserver token")
	}
	defer c.cfg.Jobserver.Release()

	spec := ports.JobSpec{
		RulePath: rulePath,
		Args:     [3]string{match.TargetArg, match.BasenameArg, tmpPath},
		Dir:      filepath.Dir(rulePath),
		Env: append(append([]string{}, os.Environ()...),
			"REDUX_BUILD_ID="+string(c.cfg.BuildID),
			"REDUX_JOB_ID="+string(jobID),
			"REDUX_PROBE_ADDR="+c.cfg.ProbeAddr,
			"MAKEFLAGS="+c.cfg.Jobserver.MAKEFLAGS(),
		),
		ExtraFiles: c.cfg.Jobserver.ExtraFiles(),
	}

	rj, err := c.cfg.Executor.Start(ctx, spec)
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "start rule"), "rule", rulePath)
	}

	js.mu.Lock()
	js.rj = rj
	js.mu.Unlock()

	go c.watchCancellation(ctx, js)

	res, err := rj.Wait()
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "wait for rule"), "rule", rulePath)
	}

	js.mu.Lock()
	cutoff := js.cutoffTrace
	deps := js.job.TentativeDeps
	js.mu.Unlock()

	switch {
	case res.Killed && cutoff != nil:
		js.job.Verdict = domain.VerdictKilledForCacheHit
		c.cfg.Log.Info("mid-job cutoff", "target", target.String(), "rule", rulePath)
		return c.materialize(ctx, target, *cutoff)

	case res.Killed:
		js.job.Verdict = domain.VerdictFailed
		return domain.Digest{}, domain.ErrInterrupted

	case res.ExitCode != 0:
		js.job.Verdict = domain.VerdictFailed
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.With(zerr.With(domain.ErrRuleFailed, "rule", rulePath), "exit_code", res.ExitCode)

	default:
		return c.commitSuccess(ctx, target, rulePath, tmpPath, deps, js)
	}
}

// commitSuccess is the zero-exit path of spec.md 4.3: the temp output is
// inserted into the content store, a trace is committed, and only then is
// the output renamed into place.
func (c *Coordinator) commitSuccess(ctx context.Context, target domain.PathKey, rulePath, tmpPath string, deps []domain.SourceDep, js *jobState) (domain.Digest, error) {
	f, err := os.Open(tmpPath) //nolint:gosec // tmpPath is coordinator-generated, not user input
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, "open job output"), "path", tmpPath)
	}
	outputDigest, err := c.cfg.Blobs.Put(ctx, f)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "insert job output into content store")
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(closeErr, "close job output")
	}

	js.mu.Lock()
	volatility := js.job.Volatility
	js.mu.Unlock()

	trace := domain.Trace{
		RulePath:     rulePath,
		TargetPath:   target.String(),
		Deps:         deps,
		Volatility:   volatility,
		OutputDigest: outputDigest,
	}
	if err := c.cfg.Traces.Commit(ctx, trace); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Digest{}, zerr.Wrap(err, "commit trace")
	}

	absPath := c.abs(target)
	if err := os.MkdirAll(filepath.Dir(absPath), domain.DirPerm); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "create target directory")
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		return domain.Digest{}, zerr.Wrap(err, "rename job output into place")
	}

	js.mu.Lock()
	js.job.Verdict = domain.VerdictCommittedOk
	js.mu.Unlock()

	return outputDigest, nil
}

// watchCancellation kills a running job when ctx is canceled, e.g. on
// SIGINT, per spec.md 7.
func (c *Coordinator) watchCancellation(ctx context.Context, js *jobState) {
	<-ctx.Done()
	js.mu.Lock()
	rj := js.rj
	js.mu.Unlock()
	if rj != nil {
		_ = rj.Kill()
	}
}

func (c *Coordinator) lookupJob(jobID domain.JobID) *jobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[jobID]
}

// Want implements ports.ProbeHandler: a running job's dependency probe.
//
// jobID's own jobserver token is released for the duration of the
// recursive want, per spec.md 4.6: a job suspended on a sub-build must give
// its token back so a diamond dependency can make progress under a low -j.
// Held across the probe, that token would deadlock a build the moment two
// running jobs probe for a dependency neither one can spawn because the
// other is holding the only slot. The token is reacquired before this
// handler answers the probe, so the child process never observes itself as
// having lost its slot — from its point of view the probe simply blocked
// for a while.
func (c *Coordinator) Want(ctx context.Context, jobID domain.JobID, targetPath string) (domain.Digest, error) {
	js := c.lookupJob(jobID)
	if js == nil {
		return domain.Digest{}, domain.ErrNotInsideJob
	}

	js.probeMu.Lock()
	defer js.probeMu.Unlock()

	js.mu.Lock()
	ancestors := js.ancestors
	js.mu.Unlock()

	c.cfg.Jobserver.Release()
	d, err := c.want(ctx, ancestors, js, domain.NewPathKey(targetPath))
	if reacqErr := c.cfg.Jobserver.Acquire(ctx); reacqErr != nil {
		return domain.Digest{}, reacqErr
	}
	if err != nil {
		return domain.Digest{}, err
	}

	c.checkMidJobCutoff(ctx, js)
	return d, nil
}

// checkMidJobCutoff implements spec.md 4.4: after every dependency a job
// observes, ask whether a committed trace already proves what the job's
// remaining work would produce, and if so kill it.
func (c *Coordinator) checkMidJobCutoff(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.cutoffTrace != nil {
		js.mu.Unlock()
		return
	}
	deps := append([]domain.SourceDep(nil), js.job.TentativeDeps...)
	rulePath := js.job.RulePath
	targetPath := js.job.TargetPath.String()
	ancestors := js.ancestors
	js.mu.Unlock()

	winner, ok, err := c.probeCacheMidJob(ctx, ancestors, rulePath, targetPath, deps)
	if err != nil {
		c.cfg.Log.Warn("mid-job cutoff probe failed", "rule", rulePath, "err", err.Error())
		return
	}
	if !ok {
		return
	}

	js.mu.Lock()
	if js.cutoffTrace != nil {
		js.mu.Unlock()
		return
	}
	js.cutoffTrace = &winner
	rj := js.rj
	js.mu.Unlock()

	if rj != nil {
		_ = rj.Kill()
	}
}

// SetVolatility implements ports.ProbeHandler.
func (c *Coordinator) SetVolatility(_ context.Context, jobID domain.JobID, v domain.Volatility) error {
	js := c.lookupJob(jobID)
	if js == nil {
		return domain.ErrNotInsideJob
	}
	js.mu.Lock()
	js.job.Volatility = v
	js.mu.Unlock()
	return nil
}

// RecordStamp implements ports.ProbeHandler: --stamp records a synthetic dep
// on the job's stdin and makes the trace volatile, per spec.md 9's adopted
// reading of the ambiguous --stamp semantics.
func (c *Coordinator) RecordStamp(_ context.Context, jobID domain.JobID, digest domain.Digest) error {
	js := c.lookupJob(jobID)
	if js == nil {
		return domain.ErrNotInsideJob
	}
	js.mu.Lock()
	js.job.TentativeDeps = append(js.job.TentativeDeps, domain.SourceDep{
		Path:   domain.NewPathKey(domain.StdinDep),
		Digest: digest,
	})
	if js.job.Volatility.Kind == domain.VolatileNone {
		js.job.Volatility = domain.Volatility{Kind: domain.VolatileAlways}
	}
	js.mu.Unlock()
	return nil
}

// RecordDepfile implements ports.ProbeHandler: parses a make-style depfile
// and issues want for each entry, same as if the rule had probed each one.
func (c *Coordinator) RecordDepfile(ctx context.Context, jobID domain.JobID, path string) error {
	js := c.lookupJob(jobID)
	if js == nil {
		return domain.ErrNotInsideJob
	}

	f, err := os.Open(path) //nolint:gosec // path comes from a running job's own --depfile flag
	if err != nil {
		return zerr.With(zerr.Wrap(err, "open depfile"), "path", path)
	}
	defer f.Close()

	paths, err := parseDepfile(f)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "parse depfile"), "path", path)
	}

	for _, p := range paths {
		if _, err := c.Want(ctx, jobID, p); err != nil {
			return err
		}
	}
	return nil
}
