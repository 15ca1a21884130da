// Package trace implements the on-disk trace store backing
// .git/redux/traces: one file per committed Trace, indexed by rule path,
// target path and input fingerprint.
package trace

import (
	"context"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TraceStore = (*Store)(nil)

// Store is a filesystem-backed trace store laid out as
// traces/<rule-hash>/<target-hash>/<fingerprint-hex>.trace.
type Store struct {
	root string
}

// NewStore returns a Store rooted at root (typically .git/redux/traces).
func NewStore(root string) *Store {
	return &Store{root: root}
}

func dirFor(root, rulePath, targetPath string) string {
	return filepath.Join(root, hashName(rulePath), hashName(targetPath))
}

func hashName(s string) string {
	d := domain.DigestBytes([]byte(s))
	return d.String()[:16]
}

func fileFor(root, rulePath, targetPath string, fp domain.Digest) string {
	return filepath.Join(dirFor(root, rulePath, targetPath), fp.String()+".trace")
}

type onDiskTrace struct {
	RulePath     string
	TargetPath   string
	Deps         []domain.SourceDep
	Volatility   domain.Volatility
	OutputDigest domain.Digest
}

// Candidates implements ports.TraceStore.
func (s *Store) Candidates(_ context.Context, rulePath, targetPath string) ([]domain.Trace, error) {
	dir := dirFor(s.root, rulePath, targetPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "read trace dir"), "dir", dir)
	}

	type withMtime struct {
		t     domain.Trace
		mtime int64
	}
	var loaded []withMtime
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		tr, err := loadTrace(path)
		if err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			return nil, zerr.Wrap(err, "stat trace file")
		}
		loaded = append(loaded, withMtime{t: tr, mtime: info.ModTime().UnixNano()})
	}

	sort.Slice(loaded, func(i, j int) bool {
		if loaded[i].mtime != loaded[j].mtime {
			return loaded[i].mtime > loaded[j].mtime
		}
		return loaded[i].t.Fingerprint().String() < loaded[j].t.Fingerprint().String()
	})

	out := make([]domain.Trace, len(loaded))
	for i, l := range loaded {
		out[i] = l.t
	}
	return out, nil
}

// PrefixIndexed implements ports.TraceStore. It scans the committed traces
// for (rulePath, targetPath) — there are never many per target — and
// returns those whose first prefixLen deps hash to key. Candidates here are
// NOT proof of a cache hit: the coordinator still validates each one
// recursively through Want.
func (s *Store) PrefixIndexed(ctx context.Context, rulePath, targetPath string, key uint64, prefixLen int) ([]domain.Trace, error) {
	all, err := s.Candidates(ctx, rulePath, targetPath)
	if err != nil {
		return nil, err
	}
	var matches []domain.Trace
	for _, t := range all {
		if len(t.Deps) < prefixLen {
			continue
		}
		if domain.DepsPrefixKey(t.Deps, prefixLen) == key {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// Commit implements ports.TraceStore: write to a temp file, fsync, rename
// into place. A crash between the content-store insertion the job already
// performed and this commit simply leaves an orphan blob, never a dangling
// trace reference.
func (s *Store) Commit(_ context.Context, t domain.Trace) error {
	dir := dirFor(s.root, t.RulePath, t.TargetPath)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "create trace dir"), "dir", dir)
	}

	tmp, err := os.CreateTemp(dir, "trace-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "create temp trace")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	enc := gob.NewEncoder(tmp)
	rec := onDiskTrace{
		RulePath:     t.RulePath,
		TargetPath:   t.TargetPath,
		Deps:         t.Deps,
		Volatility:   t.Volatility,
		OutputDigest: t.OutputDigest,
	}
	if err := enc.Encode(rec); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "encode trace")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "fsync trace")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "close trace")
	}

	dest := fileFor(s.root, t.RulePath, t.TargetPath, t.Fingerprint())
	if err := os.Rename(tmpPath, dest); err != nil {
		return zerr.With(zerr.Wrap(err, "commit trace"), "path", dest)
	}
	committed = true
	return nil
}

// Remove implements ports.TraceStore.
func (s *Store) Remove(_ context.Context, rulePath, targetPath string) error {
	dir := dirFor(s.root, rulePath, targetPath)
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "remove trace directory"), "dir", dir)
	}
	return nil
}

func loadTrace(path string) (domain.Trace, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from digest-derived directory names
	if err != nil {
		return domain.Trace{}, zerr.With(zerr.Wrap(err, "open trace"), "path", path)
	}
	defer f.Close() //nolint:errcheck

	var rec onDiskTrace
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return domain.Trace{}, zerr.With(zerr.Wrap(domain.ErrCorruptTrace, err.Error()), "path", path)
	}
	return domain.Trace{
		RulePath:     rec.RulePath,
		TargetPath:   rec.TargetPath,
		Deps:         rec.Deps,
		Volatility:   rec.Volatility,
		OutputDigest: rec.OutputDigest,
	}, nil
}
