// Package gitgateway is a thin, blocking façade over the git CLI: the
// subset of plumbing the Ledger Coordination Core needs. Every operation
// takes an explicit working directory, never changes the caller's process
// CWD, and runs git with GIT_TERMINAL_PROMPT disabled and LC_ALL pinned
// for stable output parsing, exactly as the teacher's git client does.
// The subprocess inherits the caller's environment, so the user's global
// and system git configuration still applies to every command.
package gitgateway

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jtp184/eluent/internal/ledgererr"
	"github.com/jtp184/eluent/internal/netguard"
)

// Gateway wraps git CLI operations against a single primary working tree,
// with thread safety and optional network throttling.
type Gateway struct {
	workdir  string
	mu       sync.Mutex // Serialize all git operations on this workdir to prevent races
	limiter  *netguard.Limiter
	extraEnv []string // credential overrides (e.g. GIT_SSH_COMMAND), see internal/credentials
}

// New creates a Gateway rooted at workdir. A nil limiter disables
// network throttling.
func New(workdir string, limiter *netguard.Limiter) *Gateway {
	return &Gateway{workdir: workdir, limiter: limiter}
}

// WithEnv returns a Gateway identical to g but with the given
// environment variable overrides ("KEY=VALUE") applied to every
// subprocess it runs, for credential injection.
func (g *Gateway) WithEnv(env []string) *Gateway {
	return &Gateway{workdir: g.workdir, limiter: g.limiter, extraEnv: env}
}

// run executes a git command in the gateway's workdir with a background
// context.
func (g *Gateway) run(args ...string) (string, error) {
	return g.runWithContext(context.Background(), args...)
}

// runWithContext executes a git command against workdir, honoring ctx
// cancellation by hard-killing the subprocess.
func (g *Gateway) runWithContext(ctx context.Context, args ...string) (string, error) {
	return runIn(ctx, g.workdir, &g.mu, g.extraEnv, args...)
}

// runIn executes git <args...> with dir as its working directory,
// serialized on mu, with a stable non-interactive environment. It is
// shared by the primary-tree Gateway and the Gateways returned by AtPath;
// each Gateway value has its own mutex, so commands issued through
// different Gateway values are not serialized against each other.
func runIn(ctx context.Context, dir string, mu *sync.Mutex, extraEnv []string, args ...string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0", // Prevent credential hangs
		"LC_ALL=C",              // Stable output parsing
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ledgererr.Timeout(strings.Join(args, " "), err)
		}
		return "", ledgererr.GitFailure(strings.Join(args, " "),
			fmt.Errorf("%w\nstderr: %s", err, stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Run executes an arbitrary git subcommand against the gateway's
// workdir. It exists for the handful of worktree operations (add,
// commit, reset --hard) that have no dedicated method.
func (g *Gateway) Run(args ...string) (string, error) {
	return g.run(args...)
}

// RunContext is Run with explicit context cancellation.
func (g *Gateway) RunContext(ctx context.Context, args ...string) (string, error) {
	return g.runWithContext(ctx, args...)
}

// CurrentBranch returns the current branch name of the primary tree.
func (g *Gateway) CurrentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

// CurrentCommit returns the current commit hash of the primary tree.
func (g *Gateway) CurrentCommit() (string, error) {
	return g.run("rev-parse", "HEAD")
}

// RemotePresent reports whether a remote with the given name is configured.
func (g *Gateway) RemotePresent(name string) bool {
	out, err := g.run("remote")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if line == name {
			return true
		}
	}
	return false
}

// RemoteURL returns the configured fetch URL for the named remote.
func (g *Gateway) RemoteURL(name string) (string, error) {
	return g.run("remote", "get-url", name)
}

// IsClean reports whether the primary tree has no staged or unstaged
// changes.
func (g *Gateway) IsClean() (bool, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// Checkout switches the primary tree to branch, optionally creating it.
func (g *Gateway) Checkout(branch string, create bool) error {
	if err := ValidateBranchName(branch); err != nil {
		return err
	}
	args := []string{"checkout"}
	if create {
		args = append(args, "-b")
	}
	args = append(args, branch)
	_, err := g.run(args...)
	return err
}

// withTimeout wraps ctx with a deadline, using the default when d <= 0.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultNetworkTimeout
	}
	return context.WithTimeout(ctx, d)
}
