package ledger

import (
	"context"

	"github.com/jtp184/eluent/internal/atomrecord"
	"github.com/jtp184/eluent/internal/ledgererr"
)

// ReleaseClaim pulls, rewrites the atom to open/unassigned, and pushes.
// Releasing an already-open atom succeeds after the pull, without a
// commit or push. A terminal atom
// is left alone (success). Atom-not-found is an error.
func (s *Syncer) ReleaseClaim(ctx context.Context, atomID string) error {
	if err := s.ensureHealthyWorktree(); err != nil {
		return err
	}
	if err := s.PullLedger(ctx); err != nil {
		return err
	}

	rec, err := atomrecord.Find(s.paths.Worktree, atomID)
	if err == atomrecord.ErrAtomNotFound {
		return ledgererr.AtomNotFound(atomID)
	}
	if err != nil {
		return err
	}

	if atomrecord.IsTerminal(rec.Status) {
		return nil
	}
	if rec.Status == atomrecord.StatusOpen {
		return nil
	}

	now := s.clock.Now()
	err = atomrecord.Rewrite(s.paths.Worktree, atomID, func(r atomrecord.Record) atomrecord.Record {
		r.Status = atomrecord.StatusOpen
		r.SetAssignee("")
		r.Touch(now)
		return r
	})
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom", err)
	}

	return s.PushLedger(ctx, "release "+atomID)
}

// Heartbeat touches updated_at on an atom the caller still owns, via the
// same pull-mutate-push cycle as ClaimAndPush, without changing
// status/assignee. It is rejected with ClaimConflict if the atom is no
// longer held by agentID.
func (s *Syncer) Heartbeat(ctx context.Context, atomID, agentID string) error {
	if err := s.ensureHealthyWorktree(); err != nil {
		return err
	}
	if err := s.PullLedger(ctx); err != nil {
		return err
	}

	rec, err := atomrecord.Find(s.paths.Worktree, atomID)
	if err == atomrecord.ErrAtomNotFound {
		return ledgererr.AtomNotFound(atomID)
	}
	if err != nil {
		return err
	}

	if rec.Status != atomrecord.StatusInProgress || rec.Assignee == nil || *rec.Assignee != agentID {
		owner := ""
		if rec.Assignee != nil {
			owner = *rec.Assignee
		}
		return ledgererr.ClaimConflict(atomID, owner)
	}

	now := s.clock.Now()
	err = atomrecord.Rewrite(s.paths.Worktree, atomID, func(r atomrecord.Record) atomrecord.Record {
		r.Touch(now)
		return r
	})
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom", err)
	}

	return s.PushLedger(ctx, agentID+" heartbeat "+atomID)
}
