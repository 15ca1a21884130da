// Package jobserver implements the GNU make jobserver protocol: a pool of
// tokens represented as bytes in a pipe, shared across the process tree via
// the MAKEFLAGS environment variable so that rules which themselves invoke
// make or redux recursively draw from the same concurrency budget as the
// top-level build.
package jobserver

import (
	"context"
	"fmt"
	"os"

	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Jobserver = (*Jobserver)(nil)

// Jobserver hands out n-1 tokens through a pipe (the caller itself holds the
// implicit first token, matching make's convention).
type Jobserver struct {
	readFd, writeFd *os.File
	n               int
}

// New creates a Jobserver seeded with n-1 tokens for a total parallelism of
// n. n must be >= 1.
func New(n int) (*Jobserver, error) {
	if n < 1 {
		n = 1
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, zerr.Wrap(err, "create jobserver pipe")
	}
	js := &Jobserver{readFd: r, writeFd: w, n: n}
	if n > 1 {
		if _, err := w.Write(make([]byte, n-1)); err != nil {
			return nil, zerr.Wrap(err, "seed jobserver tokens")
		}
	}
	return js, nil
}

// Acquire implements ports.Jobserver. The first Acquire of a build (the
// implicit token make's protocol grants every participant for free) should
// be skipped by the caller; Acquire here always blocks on the pipe.
func (js *Jobserver) Acquire(ctx context.Context) error {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf := make([]byte, 1)
		n, err := js.readFd.Read(buf)
		done <- result{n: n, err: err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-done:
		if r.err != nil {
			return zerr.Wrap(r.err, "acquire jobserver token")
		}
		return nil
	}
}

// Release implements ports.Jobserver.
func (js *Jobserver) Release() {
	_, _ = js.writeFd.Write([]byte{0})
}

// MAKEFLAGS implements ports.Jobserver. The descriptors it names are the ones
// a child sees: ExtraFiles are inherited from fd 3 on, read end first.
func (js *Jobserver) MAKEFLAGS() string {
	return fmt.Sprintf("-j%d --jobserver-auth=%d,%d", js.n, 3, 4)
}

// ExtraFiles implements ports.Jobserver.
func (js *Jobserver) ExtraFiles() []*os.File {
	return []*os.File{js.readFd, js.writeFd}
}

// Close releases the pipe's file descriptors. It should be called once, at
// the end of the top-level build.
func (js *Jobserver) Close() error {
	err1 := js.readFd.Close()
	err2 := js.writeFd.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
