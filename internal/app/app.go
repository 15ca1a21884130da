// Package app assembles the graft-resolved adapter set into the Components
// bundle that NewSession builds the coordinator and probe server from. The
// coordinator itself has no Graft node: it and the probe server are
// mutually referential at construction time (see internal/engine/coordinator
// and internal/adapters/probe), so NewSession wires that pair by hand on top
// of Components rather than through the dependency graph.
package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.redux.dev/redux/internal/adapters/cas"
	"go.redux.dev/redux/internal/adapters/fs"
	"go.redux.dev/redux/internal/adapters/job"
	"go.redux.dev/redux/internal/adapters/jobserver"
	"go.redux.dev/redux/internal/adapters/logger"
	"go.redux.dev/redux/internal/adapters/repo"
	"go.redux.dev/redux/internal/adapters/ruledo"
	"go.redux.dev/redux/internal/adapters/trace"
	"go.redux.dev/redux/internal/core/ports"
)

// Components holds every collaborator resolved through the dependency
// graph, ready for NewSession to build a Coordinator and probe Server from.
type Components struct {
	Repo      ports.RepoAdapter
	Rules     ports.RuleFinder
	Hasher    ports.Hasher
	Executor  ports.Executor
	Jobserver ports.Jobserver
	Blobs     ports.ContentStore
	Traces    ports.TraceStore
	Logger    ports.Logger
	Walker    ports.Walker
}

// NodeID is the Graft identifier for the assembled component bundle.
const NodeID graft.ID = "app.components"

func init() {
	graft.Register(graft.Node[*Components]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			repo.NodeID,
			ruledo.NodeID,
			fs.NodeID,
			job.NodeID,
			jobserver.NodeID,
			cas.NodeID,
			trace.NodeID,
			logger.NodeID,
			fs.WalkerNodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			repoAdapter, err := graft.Dep[ports.RepoAdapter](ctx)
			if err != nil {
				return nil, err
			}
			rules, err := graft.Dep[ports.RuleFinder](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			js, err := graft.Dep[ports.Jobserver](ctx)
			if err != nil {
				return nil, err
			}
			blobs, err := graft.Dep[ports.ContentStore](ctx)
			if err != nil {
				return nil, err
			}
			traces, err := graft.Dep[ports.TraceStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			walker, err := graft.Dep[ports.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{
				Repo:      repoAdapter,
				Rules:     rules,
				Hasher:    hasher,
				Executor:  executor,
				Jobserver: js,
				Blobs:     blobs,
				Traces:    traces,
				Logger:    log,
				Walker:    walker,
			}, nil
		},
	})
}
