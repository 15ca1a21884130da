package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the filesystem hasher adapter.
const NodeID graft.ID = "adapter.hasher"

// WalkerNodeID is the Graft identifier for the filesystem walker adapter.
const WalkerNodeID graft.ID = "adapter.walker"

func init() {
	graft.Register(graft.Node[ports.Hasher]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
	graft.Register(graft.Node[ports.Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Walker, error) {
			return NewWalker(), nil
		},
	})
}
