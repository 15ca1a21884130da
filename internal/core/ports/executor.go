package ports

import (
	"context"
	"os"

	"go.redux.dev/redux/internal/core/domain"
)

// JobSpec describes one rule invocation to run.
type JobSpec struct {
	// RulePath is the dofile to execute.
	RulePath string
	// Args are argv[1], argv[2], argv[3] as redo defines them: target with
	// extension, target without extension, temp output path.
	Args [3]string
	// Dir is the working directory, the directory containing RulePath.
	Dir string
	// Env carries the probe socket address and build/job identifiers the
	// child needs to issue dependency probes back to the coordinator.
	Env []string
	// Stdin, when non-nil, is connected to the child's standard input so
	// that --stamp can digest it.
	Stdin []byte
	// ExtraFiles are inherited starting at fd 3, used to hand the
	// jobserver's token-pipe ends down to the child per the MAKEFLAGS
	// protocol.
	ExtraFiles []*os.File
}

// RunningJob is a handle to a job's child process, returned by Executor.Start
// so the coordinator can kill it mid-run on a mid-job cutoff.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type RunningJob interface {
	// Kill terminates the job's entire process group. It is used both for
	// mid-job cutoff and for SIGINT/SIGTERM propagation.
	Kill() error

	// Wait blocks until the process exits and returns its result. Wait must
	// tolerate a concurrent Kill.
	Wait() (JobResult, error)

	// Pid returns the child's process ID.
	Pid() int
}

// JobResult is the outcome of a job's process once it has stopped running.
type JobResult struct {
	ExitCode int
	Killed   bool
	// OutputDigest is left zero by the executor, and the coordinator does
	// not fill it in: it takes the output's digest from the content store
	// when it inserts the job's temp output after a zero exit.
	OutputDigest domain.Digest
}

// Executor starts and manages rule processes.
type Executor interface {
	// Start spawns spec's process in its own process group and returns
	// immediately with a handle to it; it does not wait for exit.
	Start(ctx context.Context, spec JobSpec) (RunningJob, error)
}
