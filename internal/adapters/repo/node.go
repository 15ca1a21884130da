package repo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the git repo adapter.
const NodeID graft.ID = "adapter.repo"

func init() {
	graft.Register(graft.Node[ports.RepoAdapter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RepoAdapter, error) {
			return NewAdapter(), nil
		},
	})
}
