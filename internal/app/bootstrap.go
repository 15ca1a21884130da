package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.redux.dev/redux/internal/adapters/probe"
	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/engine/coordinator"
	"go.trai.ch/zerr"
)

// Session is one top-level redux invocation: a Coordinator wired to its own
// probe server, ready to build targets.
type Session struct {
	Coordinator *coordinator.Coordinator
	RepoRoot    string
	VCSDir      string
	ProbeAddr   string

	cancel context.CancelFunc
	done   chan struct{}
	addr   string
}

// NewSession resolves the repository root from the working directory,
// mints a build ID, and starts the probe server the coordinator's jobs will
// dial back into. The socket path is chosen up front rather than learned
// from the listener once bound — the coordinator needs to know ProbeAddr
// before it can spawn a single job, and the server needs the coordinator as
// its handler, so neither can wait on the other's construction. Choosing
// the address ourselves breaks that cycle without a Graft node for either.
func NewSession(ctx context.Context, c *Components, jobs int) (*Session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "get working directory")
	}
	repoRoot, vcsDir, err := c.Repo.Root(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "resolve repository root")
	}

	buildID, err := newBuildID()
	if err != nil {
		return nil, err
	}

	sockDir := domain.TmpPath(vcsDir)
	if err := os.MkdirAll(sockDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "create socket scratch directory"), "dir", sockDir)
	}
	probeAddr := filepath.Join(sockDir, string(buildID)+".sock")
	_ = jobs // jobserver.Parallelism is set by the caller before Components is resolved

	coord := coordinator.New(coordinator.Config{
		Repo:      c.Repo,
		Rules:     c.Rules,
		Hasher:    c.Hasher,
		Executor:  c.Executor,
		Jobserver: c.Jobserver,
		Blobs:     c.Blobs,
		Traces:    c.Traces,
		Log:       c.Logger,
		Clock:     clockwork.NewRealClock(),
		RepoRoot:  repoRoot,
		VCSDir:    vcsDir,
		ProbeAddr: probeAddr,
		BuildID:   buildID,
	})

	server := probe.New(coord, c.Logger)
	serverCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Listen(serverCtx, probeAddr); err != nil {
			c.Logger.Error("probe server stopped unexpectedly", "err", err.Error())
		}
	}()

	for i := 0; i < 200 && server.Addr() == ""; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	if server.Addr() == "" {
		cancel()
		<-done
		return nil, zerr.With(domain.ErrIO, "detail", "probe server did not bind its socket in time")
	}

	return &Session{
		Coordinator: coord,
		RepoRoot:    repoRoot,
		VCSDir:      vcsDir,
		ProbeAddr:   probeAddr,
		cancel:      cancel,
		done:        done,
		addr:        server.Addr(),
	}, nil
}

// Close stops the probe server and removes its socket file.
func (s *Session) Close() {
	s.cancel()
	<-s.done
	_ = os.Remove(s.addr)
}

func newBuildID() (domain.BuildID, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", zerr.Wrap(err, "generate build id")
	}
	return domain.BuildID(hex.EncodeToString(b[:])), nil
}
