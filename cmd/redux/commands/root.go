// Package commands implements the redux command-line interface.
package commands

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/cobra"
	"go.redux.dev/redux/internal/adapters/jobserver"
	"go.redux.dev/redux/internal/app"
)

// CLI wraps the cobra root command.
type CLI struct {
	root *cobra.Command
}

// componentsFunc resolves the application's Graft-wired components. Tests
// override it with an Option to inject fakes without running the
// dependency graph.
type componentsFunc func(context.Context) (*app.Components, error)

// Option customizes a CLI at construction. The only current use is test
// injection of a component resolver that bypasses Graft.
type Option func(*options)

type options struct {
	components componentsFunc
}

// WithComponents overrides how the driver resolves its Components bundle.
// Used by tests to inject fakes instead of running the dependency graph.
func WithComponents(fn func(context.Context) (*app.Components, error)) Option {
	return func(o *options) { o.components = fn }
}

// New builds the redux CLI. Dispatch between driver mode (building targets
// from a top-level invocation) and probe mode (a running job's own
// dependency probe, issued recursively as `redux <target>` from inside a
// dofile) happens inside RunE, based on whether REDUX_PROBE_ADDR is set in
// the environment — both share the same flag surface per the one-binary
// design.
func New(opts ...Option) *CLI {
	o := &options{
		components: func(ctx context.Context) (*app.Components, error) {
			c, _, err := graft.ExecuteFor[*app.Components](ctx)
			return c, err
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	root := &cobra.Command{
		Use:           "redux [flags] <target>...",
		Short:         "A content-addressed, redo-compatible build engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, o.components)
		},
	}

	root.Flags().IntP("jobs", "j", jobserver.Parallelism, "maximum number of rules to run concurrently")
	root.Flags().Bool("always", false, "mark the enclosing job's trace as never reusable")
	root.Flags().String("after", "", "mark the enclosing job's trace valid for the given duration (e.g. 10m)")
	root.Flags().Bool("stamp", false, "record a dependency on the enclosing job's standard input")
	root.Flags().String("depfile", "", "record every path listed in a make-style depfile as a dependency")
	root.Flags().String("clean", "", "remove a target's file and its trace-store entries")
	root.Flags().String("whichdo", "", "print the dofile that would build a target")
	root.Flags().String("howdid", "", "print the most recently committed trace for a target, without building it")
	root.Flags().Bool("sources", false, "list every tracked source file under the repository")
	root.Flags().Bool("outputs", false, "list every untracked file under the repository")

	return &CLI{root: root}
}

// Execute runs the root command with ctx threaded through cobra's context.
func (c *CLI) Execute(ctx context.Context) error {
	c.root.SetContext(ctx)
	return c.root.Execute()
}

// SetArgs sets the root command's arguments. Used by tests.
func (c *CLI) SetArgs(args []string) {
	c.root.SetArgs(args)
}

// SetOutput redirects the root command's stdout/stderr. Used by tests.
func (c *CLI) SetOutput(out, errw interface {
	Write([]byte) (int, error)
}) {
	c.root.SetOut(out)
	c.root.SetErr(errw)
}

func runRoot(cmd *cobra.Command, args []string, resolve componentsFunc) error {
	ctx := cmd.Context()

	if probeAddr := probeAddrFromEnv(); probeAddr != "" {
		return runProbe(ctx, cmd, args, probeAddr)
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs > 0 {
		jobserver.Parallelism = jobs
	}

	components, err := resolve(ctx)
	if err != nil {
		return err
	}

	return runDriver(ctx, cmd, args, components)
}
