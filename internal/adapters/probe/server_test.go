package probe_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.redux.dev/redux/internal/adapters/logger"
	"go.redux.dev/redux/internal/adapters/probe"
	"go.redux.dev/redux/internal/core/domain"
)

// fakeHandler is a hand-written stand-in for the coordinator, recording what
// it was asked to do and returning canned answers.
type fakeHandler struct {
	mu          sync.Mutex
	wantDigest  domain.Digest
	wantErr     error
	gotWant     []string
	gotVol      []domain.Volatility
	gotStamp    []domain.Digest
	gotDepfiles []string
}

func (f *fakeHandler) Want(_ context.Context, _ domain.JobID, target string) (domain.Digest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotWant = append(f.gotWant, target)
	return f.wantDigest, f.wantErr
}

func (f *fakeHandler) SetVolatility(_ context.Context, _ domain.JobID, v domain.Volatility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotVol = append(f.gotVol, v)
	return nil
}

func (f *fakeHandler) RecordStamp(_ context.Context, _ domain.JobID, d domain.Digest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotStamp = append(f.gotStamp, d)
	return nil
}

func (f *fakeHandler) RecordDepfile(_ context.Context, _ domain.JobID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotDepfiles = append(f.gotDepfiles, path)
	return nil
}

func startServer(t *testing.T, handler *fakeHandler) (addr string, stop func()) {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "probe.sock")

	log := logger.New()
	srv := probe.New(handler, log)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(ctx, sock) }()

	require.Eventually(t, func() bool {
		return srv.Addr() != ""
	}, time.Second, time.Millisecond)

	return srv.Addr(), func() {
		cancel()
		<-errCh
	}
}

func TestClientServer_Want(t *testing.T) {
	h := &fakeHandler{wantDigest: domain.DigestBytes([]byte("hello"))}
	addr, stop := startServer(t, h)
	defer stop()

	c := probe.NewClient(addr, domain.JobID("job-1"))
	d, err := c.Want(context.Background(), "foo.o")
	require.NoError(t, err)
	assert.Equal(t, domain.DigestBytes([]byte("hello")), d)
	assert.Equal(t, []string{"foo.o"}, h.gotWant)
}

func TestClientServer_WantPropagatesError(t *testing.T) {
	h := &fakeHandler{wantErr: assertErr("no such rule")}
	addr, stop := startServer(t, h)
	defer stop()

	c := probe.NewClient(addr, domain.JobID("job-1"))
	_, err := c.Want(context.Background(), "missing.o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such rule")
}

func TestClientServer_SetVolatilityStampDepfile(t *testing.T) {
	h := &fakeHandler{}
	addr, stop := startServer(t, h)
	defer stop()

	c := probe.NewClient(addr, domain.JobID("job-2"))
	require.NoError(t, c.SetVolatility(context.Background(), domain.Volatility{Kind: domain.VolatileAlways}))
	require.NoError(t, c.RecordStamp(context.Background(), domain.DigestBytes([]byte("stdin"))))
	require.NoError(t, c.RecordDepfile(context.Background(), "build.d"))

	assert.Len(t, h.gotVol, 1)
	assert.Equal(t, domain.VolatileAlways, h.gotVol[0].Kind)
	assert.Equal(t, []domain.Digest{domain.DigestBytes([]byte("stdin"))}, h.gotStamp)
	assert.Equal(t, []string{"build.d"}, h.gotDepfiles)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
