// Package job implements the rule-process executor: it spawns a dofile
// under a PTY for faithfully streamed output, enforces the temp-file
// protocol (a rule's stdout and its argv[3] file are both available, but
// only the temp file at argv[3] is ever read back as the built artifact),
// and exposes process-group kill for mid-job cutoff and signal propagation.
package job

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec and a PTY.
type Executor struct {
	logger ports.Logger
}

// NewExecutor returns an Executor that logs rule output through log.
func NewExecutor(log ports.Logger) *Executor {
	return &Executor{logger: log}
}

// Start implements ports.Executor.
func (e *Executor) Start(ctx context.Context, spec ports.JobSpec) (ports.RunningJob, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", spec.RulePath, spec.Args[0], spec.Args[1], spec.Args[2])
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.ExtraFiles = spec.ExtraFiles
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "start rule process"), "rule", spec.RulePath)
	}

	if len(spec.Stdin) > 0 {
		go func() {
			_, _ = ptmx.Write(spec.Stdin)
		}()
	}

	rj := &runningJob{
		cmd:    cmd,
		ptmx:   ptmx,
		ioDone: make(chan struct{}),
		spec:   spec,
	}

	lw := &logWriter{logger: e.logger, rule: spec.RulePath}
	go func() {
		defer close(rj.ioDone)
		_, _ = io.Copy(lw, ptmx)
		_ = lw.Close()
	}()

	return rj, nil
}

type runningJob struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone chan struct{}
	spec   ports.JobSpec

	mu     sync.Mutex
	killed bool
}

// Pid implements ports.RunningJob.
func (j *runningJob) Pid() int {
	if j.cmd.Process == nil {
		return -1
	}
	return j.cmd.Process.Pid
}

// killGrace is how long Kill waits after SIGTERM before sending SIGKILL.
const killGrace = 5 * time.Second

// Kill implements ports.RunningJob. It sends SIGTERM to the entire process
// group so that grandchildren spawned by the rule are signalled too, and
// sends SIGKILL to the group killGrace later if the rule's process is still
// its leader.
func (j *runningJob) Kill() error {
	j.mu.Lock()
	j.killed = true
	j.mu.Unlock()

	if j.cmd.Process == nil {
		return nil
	}
	pid := j.cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return j.cmd.Process.Kill()
	}
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	time.AfterFunc(killGrace, func() {
		if g, err := syscall.Getpgid(pid); err == nil && g == pgid {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}
	})
	return nil
}

// Wait implements ports.RunningJob. The exit code and kill flag come from
// the process; the output digest is computed separately by the coordinator
// from spec.Args[2] (the temp output path) once Wait returns a zero exit —
// never from anything captured off the PTY.
func (j *runningJob) Wait() (ports.JobResult, error) {
	err := j.cmd.Wait()
	<-j.ioDone
	_ = j.ptmx.Close()

	j.mu.Lock()
	killed := j.killed
	j.mu.Unlock()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if killed {
				return ports.JobResult{Killed: true}, nil
			}
			return ports.JobResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return ports.JobResult{}, zerr.Wrap(err, "wait for rule process")
	}

	return ports.JobResult{ExitCode: 0}, nil
}

// logWriter line-buffers a running rule's merged stdout/stderr into the
// structured logger, one Info call per complete line.
type logWriter struct {
	logger ports.Logger
	rule   string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) emit(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}
	w.logger.Info(msg, "rule", w.rule)
}
