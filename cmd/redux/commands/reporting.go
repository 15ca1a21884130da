package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.redux.dev/redux/internal/app"
)

func resolveRule(components *app.Components, repoRoot, target string) (string, string, error) {
	absPath := filepath.Join(repoRoot, target)
	match, err := components.Rules.Find(absPath)
	if err != nil {
		return "", "", err
	}
	return match.RulePath, target, nil
}

// runWhichdo prints the dofile that would build target, without building it.
func runWhichdo(cmd *cobra.Command, components *app.Components, target string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, _, err := components.Repo.Root(cwd)
	if err != nil {
		return err
	}
	rulePath, _, err := resolveRule(components, repoRoot, target)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rulePath)
	return nil
}

// runHowdid prints the newest committed trace for target, without the side
// effect of materializing anything.
func runHowdid(ctx context.Context, cmd *cobra.Command, components *app.Components, target string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, _, err := components.Repo.Root(cwd)
	if err != nil {
		return err
	}
	rulePath, targetPath, err := resolveRule(components, repoRoot, target)
	if err != nil {
		return err
	}

	candidates, err := components.Traces.Candidates(ctx, rulePath, targetPath)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("redux: no committed trace for %s", target)
	}

	t := candidates[0]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rule: %s\n", t.RulePath)
	fmt.Fprintf(out, "fingerprint: %s\n", t.Fingerprint())
	fmt.Fprintf(out, "output: %s\n", t.OutputDigest)
	for _, dep := range t.Deps {
		fmt.Fprintf(out, "dep: %s %s\n", dep.Path.String(), dep.Digest)
	}
	return nil
}

// runClean removes target's file and every trace committed for it. It never
// touches the content-addressed blob store.
func runClean(ctx context.Context, cmd *cobra.Command, components *app.Components, target string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, _, err := components.Repo.Root(cwd)
	if err != nil {
		return err
	}
	rulePath, targetPath, err := resolveRule(components, repoRoot, target)
	if err != nil {
		return err
	}

	if err := components.Traces.Remove(ctx, rulePath, targetPath); err != nil {
		return err
	}

	absPath := filepath.Join(repoRoot, targetPath)
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", target)
	return nil
}

// runSources lists every tracked source file under the repository.
func runSources(cmd *cobra.Command, components *app.Components) error {
	return walkAndClassify(cmd, components, true)
}

// runOutputs lists every untracked file under the repository: build
// products a trace may have been committed for, as opposed to checked-in
// sources.
func runOutputs(cmd *cobra.Command, components *app.Components) error {
	return walkAndClassify(cmd, components, false)
}

func walkAndClassify(cmd *cobra.Command, components *app.Components, wantTracked bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, _, err := components.Repo.Root(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return components.Walker.Walk(repoRoot, func(path string) error {
		tracked, err := components.Repo.IsTracked(path)
		if err != nil {
			return err
		}
		if tracked != wantTracked {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rel)
		return nil
	})
}
