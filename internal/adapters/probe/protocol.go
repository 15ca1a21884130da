// Package probe implements the dependency-probe protocol: a Unix domain
// socket, framed with encoding/gob, that a running rule's subprocess
// invocations of the redux binary use to re-enter the coordinator. A real
// generated-stub RPC layer (grpc+protobuf) is deliberately not used here —
// the protobuf service definition this would need was not available to
// build against, and gob over a domain socket gives the same synchronous
// request/response shape with nothing fabricated.
package probe

import "go.redux.dev/redux/internal/core/domain"

// RequestKind identifies which probe operation a request carries.
type RequestKind uint8

const (
	// KindWant is an implicit or explicit dependency request: "build
	// TargetPath and tell me its digest."
	KindWant RequestKind = iota
	// KindSetVolatility carries an --always or --after declaration.
	KindSetVolatility
	// KindStamp carries a --stamp digest of the job's stdin.
	KindStamp
	// KindDepfile carries a --depfile path to parse.
	KindDepfile
)

// Request is one probe call, gob-encoded over the socket.
type Request struct {
	JobID      domain.JobID
	Kind       RequestKind
	TargetPath string
	Volatility domain.Volatility
	Digest     domain.Digest
	Path       string
}

// Response answers a Request.
type Response struct {
	Digest domain.Digest
	Err    string
}
