// Package eluentpaths computes per-repository, user-scoped filesystem
// locations for the ledger worktree, state file, and lock file, and
// creates them on demand.
package eluentpaths

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jtp184/eluent/internal/ledgererr"
)

const (
	// EnvRootOverride names the environment variable that overrides the
	// per-user root directory.
	EnvRootOverride = "ELUENT_HOME"

	defaultRootDirName = ".eluent"

	worktreeDirName = ".sync-worktree"
	stateFileName    = ".ledger-sync-state"
	lockFileName     = ".ledger.lock"
)

var reservedChars = regexp.MustCompile(`[/\\:*?"<>|\s]`)

// Paths holds the resolved filesystem locations for one repository.
type Paths struct {
	// Root is the per-user root directory (~/.eluent by default).
	Root string
	// RepoRoot is the per-repository root directory under Root.
	RepoRoot string
	// Worktree is the ledger worktree checkout directory.
	Worktree string
	// StateFile is the LedgerState JSON file path.
	StateFile string
	// LockFile is the advisory cross-process lock file path.
	LockFile string
}

// New computes the per-user root and the per-repository paths (repo
// root, worktree, state file, lock file) for repoName, rooted at override if
// non-empty, else $ELUENT_HOME, else ~/.eluent.
func New(repoName, override string) (*Paths, error) {
	root, err := resolveRoot(override)
	if err != nil {
		return nil, err
	}

	sanitized, warned := sanitize(repoName)
	p := &Paths{
		Root:     root,
		RepoRoot: filepath.Join(root, sanitized),
	}
	p.Worktree = filepath.Join(p.RepoRoot, worktreeDirName)
	p.StateFile = filepath.Join(p.RepoRoot, stateFileName)
	p.LockFile = filepath.Join(p.RepoRoot, lockFileName)

	if warned {
		fmt.Fprintf(os.Stderr, "eluent: repository name %q sanitized to %q\n", repoName, sanitized)
	}

	return p, nil
}

func resolveRoot(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv(EnvRootOverride); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", ledgererr.Wrap(ledgererr.KindInternal, "cannot determine home directory", err)
	}
	return filepath.Join(home, defaultRootDirName), nil
}

// sanitize replaces filesystem-reserved characters and whitespace with "_".
// It returns whether any substitution occurred.
func sanitize(name string) (string, bool) {
	if name == "" {
		return "_", true
	}
	sanitized := reservedChars.ReplaceAllString(name, "_")
	return sanitized, sanitized != name
}

// EnsureDirectories creates any missing ancestor directories for the
// worktree parent, state file parent, and lock file parent. It never
// leaves partial directories on failure: if MkdirAll fails partway, the
// directories this call created are removed again (deepest first, and
// only while still empty) and the error names the path and reason.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.RepoRoot, filepath.Dir(p.Worktree)}
	for _, dir := range dirs {
		var missing []string
		for d := dir; ; d = filepath.Dir(d) {
			if _, err := os.Stat(d); !os.IsNotExist(err) || filepath.Dir(d) == d {
				break
			}
			missing = append(missing, d)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			for _, d := range missing {
				os.Remove(d)
			}
			return ledgererr.Wrap(ledgererr.KindInternal,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}
	return nil
}

// Valid reports whether all paths are accessible and writable: the repo
// root exists (or can be created) and is writable.
func (p *Paths) Valid() bool {
	if err := p.EnsureDirectories(); err != nil {
		return false
	}

	probe := filepath.Join(p.RepoRoot, ".eluent-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
