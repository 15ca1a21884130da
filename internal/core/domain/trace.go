package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
)

// SourceDep records that a running rule observed the file at Path to have
// content Digest. Digest == MissingDigest records an observed non-existence.
type SourceDep struct {
	Path   PathKey
	Digest Digest
}

// StdinDep is the synthetic path name used by --stamp to record a dependency
// on the job's standard input.
const StdinDep = "<stdin>"

// Trace is the ordered, committed record of one successful rule execution:
// the dependencies it observed, the freshness policy it asked for, and the
// digest of what it produced.
type Trace struct {
	RulePath     string
	TargetPath   string
	Deps         []SourceDep
	Volatility   Volatility
	OutputDigest Digest
}

// Fingerprint hashes the ordered dependency sequence and volatility policy.
// It excludes the output digest: two traces that observed the same inputs in
// the same order and produced different bytes (a non-deterministic rule)
// still share a fingerprint, by design — the fingerprint identifies an input
// configuration, not a specific run.
func (t Trace) Fingerprint() Digest {
	h := sha256.New()
	writeDeps(h, t.Deps)
	_, _ = h.Write([]byte{0xfe}) // separator between deps and volatility
	_, _ = h.Write([]byte{byte(t.Volatility.Kind)})
	if t.Volatility.Kind == VolatileAfter {
		var durBuf [8]byte
		binary.LittleEndian.PutUint64(durBuf[:], uint64(t.Volatility.Duration))
		_, _ = h.Write(durBuf[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func writeDeps(h io.Writer, deps []SourceDep) {
	for _, dep := range deps {
		path := dep.Path.String()
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(path)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write([]byte(path))
		_, _ = h.Write(dep.Digest[:])
	}
}

// DepsPrefixKey hashes just the first n dependency records, independent of
// volatility (which is unknown until the job completes). The trace recorder
// uses this after every probe to look up whether any committed trace shares
// the prefix observed so far — the fast path behind mid-job
// cutoff. It deliberately uses a fast non-cryptographic hash: it only ever
// selects candidates for the recursive, authoritative validation in
// internal/engine/coordinator, so collisions cost a wasted validation, not
// correctness.
func DepsPrefixKey(deps []SourceDep, n int) uint64 {
	h := xxhash.New()
	writeDeps(h, deps[:n])
	return h.Sum64()
}

// TraceID identifies a trace for storage and lookup.
type TraceID struct {
	RulePath    string
	TargetPath  string
	Fingerprint Digest
}
