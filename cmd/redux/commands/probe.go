package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.redux.dev/redux/internal/adapters/probe"
	"go.redux.dev/redux/internal/core/domain"
)

func probeAddrFromEnv() string {
	return os.Getenv("REDUX_PROBE_ADDR")
}

// runProbe is invoked when redux runs as a dofile's own subprocess: every
// positional target is an implicit dependency, and --always/--after/--stamp/
// --depfile forward the running job's policy and extra dependencies back to
// the coordinator over the probe socket.
func runProbe(ctx context.Context, cmd *cobra.Command, args []string, addr string) error {
	jobID := domain.JobID(os.Getenv("REDUX_JOB_ID"))
	if jobID == "" {
		return fmt.Errorf("REDUX_PROBE_ADDR is set but REDUX_JOB_ID is not")
	}
	client := probe.NewClient(addr, jobID)
	defer client.Close() //nolint:errcheck

	always, _ := cmd.Flags().GetBool("always")
	after, _ := cmd.Flags().GetString("after")
	stamp, _ := cmd.Flags().GetBool("stamp")
	depfile, _ := cmd.Flags().GetString("depfile")

	if always {
		if err := client.SetVolatility(ctx, domain.Volatility{Kind: domain.VolatileAlways}); err != nil {
			return err
		}
	}
	if after != "" {
		d, err := time.ParseDuration(after)
		if err != nil {
			return fmt.Errorf("parse --after duration: %w", err)
		}
		v := domain.Volatility{Kind: domain.VolatileAfter, Duration: d, WallClock: time.Now()}
		if err := client.SetVolatility(ctx, v); err != nil {
			return err
		}
	}
	if stamp {
		digest, err := domain.DigestReader(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("digest stdin: %w", err)
		}
		if err := client.RecordStamp(ctx, digest); err != nil {
			return err
		}
	}
	if depfile != "" {
		if err := client.RecordDepfile(ctx, depfile); err != nil {
			return err
		}
	}

	// Targets are probed one at a time, in argument order: a dofile's own
	// shell process issues its probes sequentially, and the order in which a
	// rule observes its dependencies is part of the committed trace's
	// fingerprint (spec.md invariant 1). Fanning these out concurrently would
	// make that order a socket-scheduling race instead of a property of the
	// rule itself.
	for _, target := range args {
		if _, err := client.Want(ctx, target); err != nil {
			return err
		}
	}
	return nil
}
