package ledger

import (
	"context"
	"strings"

	"github.com/jtp184/eluent/internal/atomrecord"
	"github.com/jtp184/eluent/internal/ledgererr"
)

// ClaimResult is the value record returned to callers of ClaimAndPush
// and related operations. Kind carries the typed error classification
// (empty on success) so callers that need to branch on failure reason —
// such as offline-claim reconciliation — don't have to pattern-match the
// human-readable Error string.
type ClaimResult struct {
	Success      bool
	Error        string
	Kind         ledgererr.Kind
	ClaimedBy    string
	Retries      int
	OfflineClaim bool
}

func failResult(err error, retries int) ClaimResult {
	r := ClaimResult{Error: err.Error(), Retries: retries}
	if le, ok := err.(*ledgererr.LedgerError); ok {
		r.Kind = le.Kind
	}
	return r
}

// ClaimAndPush runs the bounded optimistic-locking claim loop of spec
// §4.4: pull, inspect, mutate, push, and on a lost compare-and-set race
// retry with jittered backoff until max_retries is exhausted.
func (s *Syncer) ClaimAndPush(ctx context.Context, atomID, agentID string) ClaimResult {
	atomID = strings.TrimSpace(atomID)
	agentID = strings.TrimSpace(agentID)
	if atomID == "" || agentID == "" {
		return ClaimResult{Error: "atom_id and agent_id must be non-empty"}
	}

	if err := s.ensureHealthyWorktree(); err != nil {
		return failResult(err, 0)
	}

	if !s.Online(ctx) {
		return s.claimOffline(atomID, agentID)
	}

	maxRetries := s.maxRetries()
	b := newExponentialBackoff(s.clock)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return failResult(err, attempt-1)
		}

		if err := s.PullLedger(ctx); err != nil {
			return failResult(err, attempt-1)
		}

		rec, err := atomrecord.Find(s.paths.Worktree, atomID)
		if err == atomrecord.ErrAtomNotFound {
			return failResult(ledgererr.AtomNotFound(atomID), attempt-1)
		}
		if err != nil {
			return failResult(err, attempt-1)
		}

		if atomrecord.IsTerminal(rec.Status) {
			return failResult(ledgererr.AtomTerminal(atomID, rec.Status), attempt-1)
		}

		if rec.Status == atomrecord.StatusInProgress {
			if rec.Assignee != nil && *rec.Assignee == agentID {
				return ClaimResult{Success: true, ClaimedBy: agentID, Retries: attempt - 1}
			}
			owner := ""
			if rec.Assignee != nil {
				owner = *rec.Assignee
			}
			result := failResult(ledgererr.ClaimConflict(atomID, owner), attempt-1)
			result.ClaimedBy = owner
			return result
		}

		now := s.clock.Now()
		err = atomrecord.Rewrite(s.paths.Worktree, atomID, func(r atomrecord.Record) atomrecord.Record {
			r.Status = atomrecord.StatusInProgress
			r.SetAssignee(agentID)
			r.Touch(now)
			return r
		})
		if err != nil {
			return failResult(ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom", err), attempt-1)
		}

		msg := agentID + " claimed " + atomID
		pushErr := s.PushLedger(ctx, msg)
		if pushErr == nil {
			return ClaimResult{Success: true, ClaimedBy: agentID, Retries: attempt - 1}
		}

		if isConflict(pushErr) {
			if attempt >= maxRetries {
				break
			}
			delay := b.NextBackOff()
			if err := s.clock.Sleep(ctx, delay); err != nil {
				return failResult(err, attempt-1)
			}
			continue
		}

		return failResult(pushErr, attempt-1)
	}

	return failResult(ledgererr.MaxRetriesExceeded(maxRetries), maxRetries)
}

// ClaimOffline forces the offline-mode claim path without probing the
// remote first, for callers (e.g. the CLI's --offline flag) that know
// in advance they want a locally-queued claim.
func (s *Syncer) ClaimOffline(atomID, agentID string) ClaimResult {
	atomID = strings.TrimSpace(atomID)
	agentID = strings.TrimSpace(agentID)
	if atomID == "" || agentID == "" {
		return ClaimResult{Error: "atom_id and agent_id must be non-empty"}
	}
	if err := s.ensureHealthyWorktree(); err != nil {
		return failResult(err, 0)
	}
	return s.claimOffline(atomID, agentID)
}

func isConflict(err error) bool {
	le, ok := err.(*ledgererr.LedgerError)
	return ok && le.Kind == ledgererr.KindClaimConflict
}

func (s *Syncer) claimOffline(atomID, agentID string) ClaimResult {
	if s.cfg.OfflineMode == OfflinePolicyFail {
		return failResult(ledgererr.NetworkUnreachable("claim_and_push", nil), 0)
	}

	rec, err := atomrecord.Find(s.paths.Worktree, atomID)
	if err == atomrecord.ErrAtomNotFound {
		return failResult(ledgererr.AtomNotFound(atomID), 0)
	}
	if err != nil {
		return failResult(err, 0)
	}
	if atomrecord.IsTerminal(rec.Status) {
		return failResult(ledgererr.AtomTerminal(atomID, rec.Status), 0)
	}
	if rec.Status == atomrecord.StatusInProgress && (rec.Assignee == nil || *rec.Assignee != agentID) {
		owner := ""
		if rec.Assignee != nil {
			owner = *rec.Assignee
		}
		result := failResult(ledgererr.ClaimConflict(atomID, owner), 0)
		result.ClaimedBy = owner
		return result
	}

	now := s.clock.Now()
	err = atomrecord.Rewrite(s.paths.Worktree, atomID, func(r atomrecord.Record) atomrecord.Record {
		r.Status = atomrecord.StatusInProgress
		r.SetAssignee(agentID)
		r.Touch(now)
		return r
	})
	if err != nil {
		return failResult(ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom", err), 0)
	}

	st, err := s.state.Load()
	if err != nil {
		return failResult(err, 0)
	}
	st.RecordOfflineClaim(atomID, agentID, now)
	if err := s.state.Save(st); err != nil {
		return failResult(err, 0)
	}

	return ClaimResult{Success: true, OfflineClaim: true}
}
