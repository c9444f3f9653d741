package ledger

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jtp184/eluent/internal/gitgateway"
	"github.com/jtp184/eluent/internal/ledgerstate"
)

// PullLedger self-heals if stale, fetches the ledger branch, destructively
// resets the worktree to match, and records the new head in LedgerState.
// A destructive reset is correct here: the worktree is a private mirror,
// never a place for uncommitted human work.
func (s *Syncer) PullLedger(ctx context.Context) error {
	if err := s.ensureHealthyWorktree(); err != nil {
		return err
	}

	if err := s.primary.FetchBranch(ctx, s.cfg.Remote, s.cfg.LedgerBranch, s.networkTimeout()); err != nil {
		return err
	}

	wt := s.worktreeGateway()
	target := s.cfg.Remote + "/" + s.cfg.LedgerBranch
	if _, err := wt.RunContext(ctx, "reset", "--hard", target); err != nil {
		return err
	}

	head, err := wt.CurrentCommit()
	if err != nil {
		return err
	}

	st, err := s.state.Load()
	if err != nil {
		return err
	}
	st.UpdatePull(head, s.clock.Now())

	if err := s.autoReleaseStaleClaims(ctx, st); err != nil {
		fmt.Fprintf(os.Stderr, "eluent: auto-release of stale claims failed: %v\n", err)
	}

	return s.state.Save(st)
}

// autoReleaseStaleClaims implements spec §9 Open Question 3 / SPEC_FULL
// §4.4: when sync.claim_timeout_hours is configured, any atom still
// in_progress past the threshold is reset to open in a single commit,
// pushed once without a retry. A rejected or failed push is returned as
// an error, which the caller logs without failing the pull.
func (s *Syncer) autoReleaseStaleClaims(ctx context.Context, st *ledgerstate.State) error {
	if s.cfg.ClaimTimeoutHours <= 0 {
		return nil
	}

	threshold := s.clock.Now().Add(-time.Duration(s.cfg.ClaimTimeoutHours * float64(time.Hour)))
	released, err := releaseStaleAtoms(s.paths.Worktree, threshold)
	if err != nil {
		return err
	}
	if released == 0 {
		return nil
	}

	wt := s.worktreeGateway()
	if _, err := wt.RunContext(ctx, "add", "-A"); err != nil {
		return err
	}
	msg := "ledger: auto-release " + strconv.Itoa(released) + " stale claim(s)"
	if _, err := wt.RunContext(ctx, "commit", "-m", msg); err != nil {
		return err
	}

	outcome, err := s.primary.PushBranch(ctx, s.cfg.Remote, s.cfg.LedgerBranch, false, s.networkTimeout())
	if err != nil {
		return err
	}
	if outcome != gitgateway.PushSucceeded {
		return fmt.Errorf("auto-release push outcome: %s", outcome)
	}

	head, err := wt.CurrentCommit()
	if err == nil {
		st.UpdatePush(head, s.clock.Now())
	}
	return nil
}
