package trace

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/adapters/repo"
	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the trace store adapter.
const NodeID graft.ID = "adapter.trace_store"

func init() {
	graft.Register(graft.Node[ports.TraceStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{repo.NodeID},
		Run: func(ctx context.Context) (ports.TraceStore, error) {
			repoAdapter, err := graft.Dep[ports.RepoAdapter](ctx)
			if err != nil {
				return nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			_, vcsDir, err := repoAdapter.Root(cwd)
			if err != nil {
				return nil, err
			}
			return NewStore(domain.TracesPath(vcsDir)), nil
		},
	})
}
