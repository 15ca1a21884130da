// Package wiring registers all Graft nodes for the application. The
// coordinator and probe server are deliberately absent: they are mutually
// referential at construction time (the server's handler is the
// coordinator; the coordinator's probe address is handed to the jobs it
// spawns), so internal/app's NewSession wires that pair by hand instead of
// through the dependency graph.
package wiring

import (
	_ "go.redux.dev/redux/internal/adapters/cas"
	_ "go.redux.dev/redux/internal/adapters/fs"
	_ "go.redux.dev/redux/internal/adapters/job"
	_ "go.redux.dev/redux/internal/adapters/jobserver"
	_ "go.redux.dev/redux/internal/adapters/logger"
	_ "go.redux.dev/redux/internal/adapters/repo"
	_ "go.redux.dev/redux/internal/adapters/ruledo"
	_ "go.redux.dev/redux/internal/adapters/trace"
	_ "go.redux.dev/redux/internal/app"
)
