package job

import (
	"context"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/adapters/logger"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the job executor adapter.
const NodeID graft.ID = "adapter.job_executor"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Executor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log), nil
		},
	})
}
