package domain

import "go.trai.ch/zerr"

var (
	// ErrNoRule is returned when a target is neither a tracked source file
	// nor has a dofile that could produce it.
	ErrNoRule = zerr.New("no rule to build target")

	// ErrRuleFailed is returned when a rule process exits non-zero.
	ErrRuleFailed = zerr.New("rule failed")

	// ErrCycle is returned when a target is re-requested from within its own
	// transitive build.
	ErrCycle = zerr.New("dependency cycle")

	// ErrIO wraps filesystem and process I/O failures.
	ErrIO = zerr.New("I/O error")

	// ErrCorruptTrace is returned when a persisted trace file cannot be
	// parsed.
	ErrCorruptTrace = zerr.New("corrupt trace")

	// ErrCacheMiss is internal: no committed trace validates against the
	// current filesystem state.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrInterrupted is returned when a build is aborted by SIGINT/SIGTERM.
	ErrInterrupted = zerr.New("build interrupted")

	// ErrBadDigestLength is returned when a hex-encoded digest has the wrong
	// byte length after decoding.
	ErrBadDigestLength = zerr.New("digest: wrong byte length")

	// ErrNotInsideJob is returned by the coordinator's probe handlers when a
	// probe names a job ID that is not running in the current build.
	ErrNotInsideJob = zerr.New("not running inside a redux job")

	// ErrNotARepository is returned when redux is invoked outside a tracked
	// repository.
	ErrNotARepository = zerr.New("not inside a tracked repository")
)
