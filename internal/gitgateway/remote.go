package gitgateway

import (
	"context"
	"strings"
	"time"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// PushOutcome distinguishes why a push attempt ended the way it did, so
// callers can tell a rejected compare-and-set apart from a transient
// network failure without string-matching git's stderr.
type PushOutcome int

const (
	// PushSucceeded means the ref update landed as a fast-forward (or
	// the remote accepted the new branch outright).
	PushSucceeded PushOutcome = iota
	// PushRejectedNonFastForward means another writer advanced the
	// remote branch since this process last fetched it; the caller's
	// optimistic-locking retry loop should re-pull and retry.
	PushRejectedNonFastForward
	// PushFailed means the push did not complete for some other reason
	// (network, auth, repository corruption).
	PushFailed
)

func (o PushOutcome) String() string {
	switch o {
	case PushSucceeded:
		return "succeeded"
	case PushRejectedNonFastForward:
		return "rejected-non-fast-forward"
	default:
		return "failed"
	}
}

// nonFastForwardMarkers are substrings git prints to stderr when a push
// is rejected because the remote tip has moved; matched case-sensitively
// against the real git wire protocol messages used across supported git
// versions.
var nonFastForwardMarkers = []string{
	"[rejected]",
	"non-fast-forward",
	"fetch first",
	"stale info",
}

// FetchBranch fetches branch from remote into the primary tree's remote
// tracking refs, bounded by timeout (or DefaultNetworkTimeout if zero).
// It does not merge or modify the working tree.
func (g *Gateway) FetchBranch(ctx context.Context, remote, branch string, timeout time.Duration) error {
	if err := ValidateBranchName(branch); err != nil {
		return err
	}
	if err := g.throttle(ctx); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	_, err := g.runWithContext(ctx, "fetch", remote, branch)
	return err
}

// PushBranch pushes the primary tree's local branch to remote, optionally
// setting upstream tracking. The returned PushOutcome distinguishes a
// non-fast-forward rejection — the expected, routine outcome of a lost
// compare-and-set race — from any other failure.
func (g *Gateway) PushBranch(ctx context.Context, remote, branch string, setUpstream bool, timeout time.Duration) (PushOutcome, error) {
	if err := ValidateBranchName(branch); err != nil {
		return PushFailed, err
	}
	if err := g.throttle(ctx); err != nil {
		return PushFailed, err
	}

	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, remote, branch)

	_, err := g.runWithContext(ctx, args...)
	if err == nil {
		return PushSucceeded, nil
	}

	if isNonFastForward(err) {
		return PushRejectedNonFastForward, nil
	}

	return PushFailed, err
}

// RemoteBranchCommit returns the commit hash that branch currently points
// to on remote, via a non-mutating `git ls-remote`. It returns "" and a
// nil error when the branch does not exist remotely, and a
// ledgererr.KindNetworkUnreachable error when ls-remote itself fails.
func (g *Gateway) RemoteBranchCommit(ctx context.Context, remote, branch string) (string, error) {
	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}
	if err := g.throttle(ctx); err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, 0)
	defer cancel()

	out, err := g.runWithContext(ctx, "ls-remote", remote, "refs/heads/"+branch)
	if err != nil {
		return "", ledgererr.NetworkUnreachable("ls-remote", err)
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

func (g *Gateway) throttle(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return ledgererr.Timeout("network-rate-limit", err)
	}
	return nil
}

func isNonFastForward(err error) bool {
	le, ok := err.(*ledgererr.LedgerError)
	if !ok {
		return false
	}
	for _, marker := range nonFastForwardMarkers {
		if strings.Contains(le.Error(), marker) {
			return true
		}
	}
	return false
}
