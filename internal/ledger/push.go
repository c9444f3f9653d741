package ledger

import (
	"context"

	"github.com/jtp184/eluent/internal/gitgateway"
	"github.com/jtp184/eluent/internal/ledgererr"
)

// PushLedger stages, commits (if there are changes), and pushes the
// worktree's pending changes to the ledger branch.
func (s *Syncer) PushLedger(ctx context.Context, commitMessage string) error {
	wt := s.worktreeGateway()

	if _, err := wt.RunContext(ctx, "add", "-A"); err != nil {
		return err
	}

	clean, err := wt.IsClean()
	if err != nil {
		return err
	}
	if clean {
		return nil
	}

	if _, err := wt.RunContext(ctx, "commit", "-m", commitMessage); err != nil {
		return err
	}

	outcome, err := s.primary.PushBranch(ctx, s.cfg.Remote, s.cfg.LedgerBranch, false, s.networkTimeout())
	if err != nil {
		return err
	}
	if outcome == gitgateway.PushRejectedNonFastForward {
		return ledgererr.New(ledgererr.KindClaimConflict, "push rejected: ledger branch advanced since last pull")
	}
	if outcome != gitgateway.PushSucceeded {
		return ledgererr.GitFailure("push "+s.cfg.LedgerBranch, nil)
	}

	head, err := wt.CurrentCommit()
	if err != nil {
		return err
	}

	st, err := s.state.Load()
	if err != nil {
		return err
	}
	st.UpdatePush(head, s.clock.Now())
	return s.state.Save(st)
}
