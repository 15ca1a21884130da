package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.redux.dev/redux/internal/app"
)

// runDriver is the top-level invocation: no REDUX_PROBE_ADDR in the
// environment, so this process owns the build — it starts its own probe
// server and builds every positional target in turn.
func runDriver(ctx context.Context, cmd *cobra.Command, args []string, components *app.Components) error {
	if clean, _ := cmd.Flags().GetString("clean"); clean != "" {
		return runClean(ctx, cmd, components, clean)
	}
	if target, _ := cmd.Flags().GetString("whichdo"); target != "" {
		return runWhichdo(cmd, components, target)
	}
	if target, _ := cmd.Flags().GetString("howdid"); target != "" {
		return runHowdid(ctx, cmd, components, target)
	}
	if sources, _ := cmd.Flags().GetBool("sources"); sources {
		return runSources(cmd, components)
	}
	if outputs, _ := cmd.Flags().GetBool("outputs"); outputs {
		return runOutputs(cmd, components)
	}

	if len(args) == 0 {
		return fmt.Errorf("redux: no target given")
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	session, err := app.NewSession(ctx, components, jobs)
	if err != nil {
		return err
	}
	defer session.Close()

	for _, target := range args {
		if _, err := session.Coordinator.Build(ctx, target); err != nil {
			return fmt.Errorf("build %s: %w", target, err)
		}
	}
	return nil
}
