package ports

import (
	"context"
	"os"
)

// Jobserver hands out a fixed pool of tokens across the tree of rule
// processes, matching GNU make's jobserver protocol so that redux rules
// which themselves invoke `make` or `redux` recursively share the same
// concurrency budget as the top-level build.
//
//go:generate mockgen -source=jobserver.go -destination=mocks/mock_jobserver.go -package=mocks
type Jobserver interface {
	// Acquire blocks until a token is available or ctx is canceled.
	Acquire(ctx context.Context) error

	// Release returns a token to the pool. It must be called exactly once
	// for every successful Acquire.
	Release()

	// MAKEFLAGS returns the environment variable value that propagates the
	// jobserver's file descriptors and job count to child processes.
	MAKEFLAGS() string

	// ExtraFiles returns the open ends of the token pipe that must be
	// inherited by a spawned child via exec.Cmd.ExtraFiles.
	ExtraFiles() []*os.File
}
