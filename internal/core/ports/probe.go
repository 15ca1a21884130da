package ports

import (
	"context"

	"go.redux.dev/redux/internal/core/domain"
)

// ProbeServer accepts dependency-probe connections from running jobs over a
// Unix domain socket and routes them to the coordinator.
//
//go:generate mockgen -source=probe.go -destination=mocks/mock_probe.go -package=mocks
type ProbeServer interface {
	// Listen starts accepting probe connections at addr. It runs until ctx
	// is canceled.
	Listen(ctx context.Context, addr string) error

	// Addr returns the socket address once Listen has bound it.
	Addr() string
}

// ProbeHandler is implemented by the coordinator and invoked by ProbeServer
// for each request a running job sends.
type ProbeHandler interface {
	// Want handles an implicit or explicit dependency on targetPath issued
	// by the job identified by jobID, recursively building targetPath if
	// needed and returning its digest.
	Want(ctx context.Context, jobID domain.JobID, targetPath string) (domain.Digest, error)

	// SetVolatility records an --always or --after policy for jobID.
	SetVolatility(ctx context.Context, jobID domain.JobID, v domain.Volatility) error

	// RecordStamp records a --stamp dependency on the job's stdin, digested
	// by the caller and passed in as digest.
	RecordStamp(ctx context.Context, jobID domain.JobID, digest domain.Digest) error

	// RecordDepfile parses a depfile at path (Makefile .d syntax) and
	// records each entry as a dependency of jobID.
	RecordDepfile(ctx context.Context, jobID domain.JobID, path string) error
}

// ProbeClient is the side linked into subprocesses invoked via the `redux`
// binary when REDUX_PROBE_ADDR is set, i.e. when running as a probe rather
// than as the top-level CLI.
type ProbeClient interface {
	Want(ctx context.Context, targetPath string) (domain.Digest, error)
	SetVolatility(ctx context.Context, v domain.Volatility) error
	RecordStamp(ctx context.Context, digest domain.Digest) error
	RecordDepfile(ctx context.Context, path string) error
	Close() error
}
