// Package ruledo resolves a target path to the dofile that builds it,
// following the classic redo ancestor-directory search: for a target named
// foo.c.o redux looks for foo.c.o.do, then default.c.o.do, default.o.do,
// default.do in the target's own directory, then repeats the default.*.do
// search (never the exact-name search) in each ancestor directory up to the
// repository root.
package ruledo

import (
	"os"
	"path/filepath"
	"strings"

	"go.redux.dev/redux/internal/core/domain"
	"go.redux.dev/redux/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RuleFinder = (*Finder)(nil)

// Finder implements ports.RuleFinder.
type Finder struct {
	repoRoot string
}

// NewFinder returns a Finder that never searches above repoRoot.
func NewFinder(repoRoot string) *Finder {
	return &Finder{repoRoot: repoRoot}
}

// Find implements ports.RuleFinder.
func (f *Finder) Find(targetPath string) (ports.RuleMatch, error) {
	dir, base := filepath.Split(targetPath)
	dir = filepath.Clean(dir)

	for _, candidate := range candidateNames(base) {
		rulePath := filepath.Join(dir, candidate)
		if fileExists(rulePath) {
			return f.match(rulePath, dir, base, candidate)
		}
	}

	for dir != "." && dir != f.repoRoot && dir != string(filepath.Separator) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		for _, candidate := range defaultNames(base) {
			rulePath := filepath.Join(dir, candidate)
			if fileExists(rulePath) {
				return f.match(rulePath, dir, base, candidate)
			}
		}
	}

	return ports.RuleMatch{}, zerr.With(domain.ErrNoRule, "target", targetPath)
}

func (f *Finder) match(rulePath, _, base, candidate string) (ports.RuleMatch, error) {
	targetArg := base
	basenameArg := base
	if strings.HasPrefix(candidate, "default.") {
		ext := strings.TrimSuffix(strings.TrimPrefix(candidate, "default"), ".do")
		basenameArg = strings.TrimSuffix(base, ext)
	}
	return ports.RuleMatch{
		RulePath:    rulePath,
		TargetArg:   targetArg,
		BasenameArg: basenameArg,
	}, nil
}

// candidateNames returns, in priority order, the dofile names tried in the
// target's own directory: the exact-name rule first, then progressively
// shorter default.*.do wildcards.
func candidateNames(base string) []string {
	names := []string{base + ".do"}
	names = append(names, defaultNames(base)...)
	return names
}

// defaultNames returns the default.*.do wildcard candidates for base, from
// most to least specific, e.g. for "foo.c.o": default.c.o.do, default.o.do,
// default.do.
func defaultNames(base string) []string {
	var names []string
	rest := base
	for {
		idx := strings.Index(rest, ".")
		if idx < 0 {
			break
		}
		ext := rest[idx:]
		names = append(names, "default"+ext+".do")
		rest = rest[idx+1:]
	}
	names = append(names, "default.do")
	return names
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
