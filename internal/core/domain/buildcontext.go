package domain

import "sync"

// wantResult is the memoized outcome of building one target within a single
// BuildContext: either a content digest, or the error that building it
// produced. Once set it never changes for the lifetime of the context.
type wantResult struct {
	digest Digest
	err    error
}

// inFlight is shared by every goroutine currently waiting on the same target
// within one BuildContext, so that concurrent requests for a target already
// under construction coalesce onto the one running job instead of starting
// a second one.
type inFlight struct {
	done chan struct{}
	wantResult
}

// BuildContext is the shared, mutable state of one top-level redux
// invocation: the memoization table every recursive Want call consults
// before starting a job, and the in-flight table it uses to coalesce
// concurrent requests for the same target. It is safe for concurrent use.
type BuildContext struct {
	ID BuildID

	mu       sync.Mutex
	resolved map[PathKey]wantResult
	inflight map[PathKey]*inFlight
}

// NewBuildContext returns an empty BuildContext for one top-level build.
func NewBuildContext(id BuildID) *BuildContext {
	return &BuildContext{
		ID:       id,
		resolved: make(map[PathKey]wantResult),
		inflight: make(map[PathKey]*inFlight),
	}
}

// Resolved reports the memoized result for target, if this build has
// already finished building it.
func (bc *BuildContext) Resolved(target PathKey) (Digest, error, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	r, ok := bc.resolved[target]
	return r.digest, r.err, ok
}

// ClaimOrJoin either claims target for the calling goroutine, returning
// (nil, true) to mean "you build it, and call Commit when done", or joins an
// in-flight build already underway, returning a channel that closes once
// that build commits a result retrievable via Resolved. If target has
// already been committed, it returns an already-closed channel.
func (bc *BuildContext) ClaimOrJoin(target PathKey) (wait <-chan struct{}, claimed bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if _, ok := bc.resolved[target]; ok {
		done := make(chan struct{})
		close(done)
		return done, false
	}
	if f, ok := bc.inflight[target]; ok {
		return f.done, false
	}
	f := &inFlight{done: make(chan struct{})}
	bc.inflight[target] = f
	return nil, true
}

// Commit records the final result for target, wakes any goroutines waiting
// on ClaimOrJoin, and moves the result into the permanent memoization table.
// It must be called exactly once by whichever goroutine's ClaimOrJoin call
// returned claimed == true.
func (bc *BuildContext) Commit(target PathKey, digest Digest, err error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.resolved[target] = wantResult{digest: digest, err: err}
	if f, ok := bc.inflight[target]; ok {
		f.wantResult = wantResult{digest: digest, err: err}
		close(f.done)
		delete(bc.inflight, target)
	}
}

// ResultOf returns the result recorded by a completed in-flight build that
// wait (as returned from ClaimOrJoin) has already signaled as done. Callers
// must receive from wait before calling this.
func (bc *BuildContext) ResultOf(target PathKey) (Digest, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	r := bc.resolved[target]
	return r.digest, r.err
}
