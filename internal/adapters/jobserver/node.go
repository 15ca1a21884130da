package jobserver

import (
	"context"
	"runtime"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the jobserver adapter.
const NodeID graft.ID = "adapter.jobserver"

// Parallelism is overridden by cmd/redux's -j flag before the wiring graph
// is executed; it defaults to GOMAXPROCS.
var Parallelism = runtime.GOMAXPROCS(0)

func init() {
	graft.Register(graft.Node[ports.Jobserver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Jobserver, error) {
			return New(Parallelism)
		},
	})
}
