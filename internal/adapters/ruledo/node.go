package ruledo

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/adapters/repo"
	"go.redux.dev/redux/internal/core/ports"
)

// NodeID is the Graft identifier for the rule finder adapter.
const NodeID graft.ID = "adapter.rule_finder"

func init() {
	graft.Register(graft.Node[ports.RuleFinder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{repo.NodeID},
		Run: func(ctx context.Context) (ports.RuleFinder, error) {
			repoAdapter, err := graft.Dep[ports.RepoAdapter](ctx)
			if err != nil {
				return nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			repoRoot, _, err := repoAdapter.Root(cwd)
			if err != nil {
				return nil, err
			}
			return NewFinder(repoRoot), nil
		},
	})
}
