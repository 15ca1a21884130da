package job_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.redux.dev/redux/internal/adapters/job"
	"go.redux.dev/redux/internal/adapters/logger"
	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
)

func writeRule(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), domain.FilePerm))
	return path
}

func TestExecutor_Start_WritesToTempOutput(t *testing.T) {
	dir := t.TempDir()
	rule := writeRule(t, dir, "a.o.do", "#!/bin/sh\necho building\nprintf hello > \"$3\"\n")

	exec := job.NewExecutor(logger.New())
	tmpOut := filepath.Join(dir, "out.tmp")

	rj, err := exec.Start(context.Background(), ports.JobSpec{
		RulePath: rule,
		Args:     [3]string{"a.o", "a", tmpOut},
		Dir:      dir,
	})
	require.NoError(t, err)

	res, err := rj.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Killed)

	got, err := os.ReadFile(tmpOut)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestExecutor_Start_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	rule := writeRule(t, dir, "fail.do", "#!/bin/sh\nexit 7\n")

	exec := job.NewExecutor(logger.New())
	rj, err := exec.Start(context.Background(), ports.JobSpec{
		RulePath: rule,
		Args:     [3]string{"fail", "fail", filepath.Join(dir, "out.tmp")},
		Dir:      dir,
	})
	require.NoError(t, err)

	res, err := rj.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestExecutor_Kill_StopsProcess(t *testing.T) {
	dir := t.TempDir()
	rule := writeRule(t, dir, "slow.do", "#!/bin/sh\nsleep 60\n")

	exec := job.NewExecutor(logger.New())
	rj, err := exec.Start(context.Background(), ports.JobSpec{
		RulePath: rule,
		Args:     [3]string{"slow", "slow", filepath.Join(dir, "out.tmp")},
		Dir:      dir,
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, rj.Kill())

	done := make(chan ports.JobResult, 1)
	go func() {
		res, _ := rj.Wait()
		done <- res
	}()

	select {
	case res := <-done:
		assert.True(t, res.Killed)
	case <-time.After(5 * time.Second):
		t.Fatal("kill did not stop the process in time")
	}
}
