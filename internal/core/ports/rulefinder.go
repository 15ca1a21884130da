package ports

// RuleMatch is a resolved dofile for a target, along with the argv[1]/argv[2]
// redo passes the rule: the target with and without its matched extension.
type RuleMatch struct {
	RulePath    string
	TargetArg   string
	BasenameArg string
}

// RuleFinder resolves a target path to the dofile that builds it, walking
// ancestor directories and trying default.<ext>.do rules the way redo does.
//
//go:generate mockgen -source=rulefinder.go -destination=mocks/mock_rulefinder.go -package=mocks
type RuleFinder interface {
	// Find returns the dofile for targetPath. It returns
	// domain.ErrNoRule wrapped if none exists.
	Find(targetPath string) (RuleMatch, error)
}

// RepoAdapter locates the repository root and tells sources apart from
// build products.
type RepoAdapter interface {
	// Root returns the repository's top-level directory and the path to its
	// VCS metadata directory (e.g. ".git"), used to root .git/redux/.
	Root(startDir string) (repoRoot, vcsDir string, err error)

	// IsTracked reports whether path is checked into version control, i.e.
	// a source file rather than a build product.
	IsTracked(path string) (bool, error)
}
