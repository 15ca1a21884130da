package probe

import (
	"context"
	"encoding/gob"
	"errors"
	"net"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ProbeClient = (*Client)(nil)

// Client is the side of the probe protocol linked into the redux binary when
// it is invoked as a running job's subprocess rather than as the top-level
// driver. Each call opens a fresh connection, sends one Request, and reads
// back one Response: requests from the same job never need to be pipelined
// against each other, since a dofile's probes are issued sequentially by its
// own shell process.
type Client struct {
	addr  string
	jobID domain.JobID
}

// NewClient returns a Client that dials addr and identifies itself as jobID
// on every request.
func NewClient(addr string, jobID domain.JobID) *Client {
	return &Client{addr: addr, jobID: jobID}
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	req.JobID = c.jobID

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.addr)
	if err != nil {
		return Response{}, zerr.With(zerr.Wrap(err, "dial probe socket"), "addr", c.addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := gob.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, zerr.Wrap(err, "encode probe request")
	}

	var resp Response
	if err := gob.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, zerr.Wrap(err, "decode probe response")
	}
	if resp.Err != "" {
		return Response{}, errors.New(resp.Err)
	}
	return resp, nil
}

// Want implements ports.ProbeClient.
func (c *Client) Want(ctx context.Context, targetPath string) (domain.Digest, error) {
	resp, err := c.call(ctx, Request{Kind: KindWant, TargetPath: targetPath})
	if err != nil {
		return domain.Digest{}, err
	}
	return resp.Digest, nil
}

// SetVolatility implements ports.ProbeClient.
func (c *Client) SetVolatility(ctx context.Context, v domain.Volatility) error {
	_, err := c.call(ctx, Request{Kind: KindSetVolatility, Volatility: v})
	return err
}

// RecordStamp implements ports.ProbeClient.
func (c *Client) RecordStamp(ctx context.Context, digest domain.Digest) error {
	_, err := c.call(ctx, Request{Kind: KindStamp, Digest: digest})
	return err
}

// RecordDepfile implements ports.ProbeClient.
func (c *Client) RecordDepfile(ctx context.Context, path string) error {
	_, err := c.call(ctx, Request{Kind: KindDepfile, Path: path})
	return err
}

// Close implements ports.ProbeClient. Client dials fresh per call, so there
// is no persistent connection to tear down.
func (c *Client) Close() error {
	return nil
}
