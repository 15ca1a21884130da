package probe

import (
	"context"
	"encoding/gob"
	"errors"
	"net"
	"sync"

	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ProbeServer = (*Server)(nil)

// Server listens on a Unix domain socket and dispatches each connection's
// requests to a ProbeHandler. Per the spec's resolution of the sibling-probe
// race: it handles one request per connection, and leaves ordering of
// distinct connections from the same job to whatever order the kernel
// delivers them — the handler itself serialises per-job.
type Server struct {
	handler ports.ProbeHandler
	log     ports.Logger

	mu       sync.Mutex
	listener net.Listener
	addr     string
}

// New returns a Server that dispatches to handler. There is no Graft node
// for Server: its handler is the coordinator itself, and the coordinator in
// turn needs the server's Addr to hand to spawned jobs, so internal/app's
// NewSession wires this one by hand rather than through the dependency graph.
func New(handler ports.ProbeHandler, log ports.Logger) *Server {
	return &Server{handler: handler, log: log}
}

// Listen implements ports.ProbeServer.
func (s *Server) Listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("unix", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "listen on probe socket"), "addr", addr)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return zerr.Wrap(err, "accept probe connection")
		}
		go s.serve(ctx, conn)
	}
}

// Addr implements ports.ProbeServer.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)

	var req Request
	if err := dec.Decode(&req); err != nil {
		return
	}

	resp := s.handle(ctx, req)
	_ = enc.Encode(resp)
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	switch req.Kind {
	case KindWant:
		d, err := s.handler.Want(ctx, req.JobID, req.TargetPath)
		if err != nil {
			return Response{Err: err.Error()}
		}
		return Response{Digest: d}
	case KindSetVolatility:
		if err := s.handler.SetVolatility(ctx, req.JobID, req.Volatility); err != nil {
			return Response{Err: err.Error()}
		}
		return Response{}
	case KindStamp:
		if err := s.handler.RecordStamp(ctx, req.JobID, req.Digest); err != nil {
			return Response{Err: err.Error()}
		}
		return Response{}
	case KindDepfile:
		if err := s.handler.RecordDepfile(ctx, req.JobID, req.Path); err != nil {
			return Response{Err: err.Error()}
		}
		return Response{}
	default:
		s.log.Error("unknown probe request kind", "kind", req.Kind)
		return Response{Err: "unknown probe request kind"}
	}
}
