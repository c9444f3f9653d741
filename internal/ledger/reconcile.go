package ledger

import (
	"context"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// ReconcileOutcome enumerates what happened when an offline claim was
// replayed against the remote.
type ReconcileOutcome string

const (
	ReconcileReconciled  ReconcileOutcome = "reconciled"
	ReconcileConflict    ReconcileOutcome = "conflict"
	ReconcileAtomDeleted ReconcileOutcome = "atom_deleted"
	ReconcileError       ReconcileOutcome = "error"
)

// ReconcileReport is one {atom_id, outcome} pair from a reconciliation
// pass.
type ReconcileReport struct {
	AtomID  string
	Outcome ReconcileOutcome
	Detail  string
}

// ReconcileOfflineClaims replays every queued OfflineClaim through
// ClaimAndPush in FIFO order. A conflict or atom-deleted outcome still
// clears the claim from the queue (it cannot be retried into existing);
// an error outcome leaves it queued for the next pass.
func (s *Syncer) ReconcileOfflineClaims(ctx context.Context) ([]ReconcileReport, error) {
	st, err := s.state.Load()
	if err != nil {
		return nil, err
	}

	claims := make([]struct{ AtomID, AgentID string }, len(st.OfflineClaims))
	for i, c := range st.OfflineClaims {
		claims[i] = struct{ AtomID, AgentID string }{c.AtomID, c.AgentID}
	}

	var reports []ReconcileReport
	for _, c := range claims {
		result := s.ClaimAndPush(ctx, c.AtomID, c.AgentID)

		switch {
		case result.Success:
			reports = append(reports, ReconcileReport{AtomID: c.AtomID, Outcome: ReconcileReconciled})
			st.ClearOfflineClaim(c.AtomID)
		case result.Kind == ledgererr.KindAtomNotFound:
			reports = append(reports, ReconcileReport{AtomID: c.AtomID, Outcome: ReconcileAtomDeleted, Detail: result.Error})
			st.ClearOfflineClaim(c.AtomID)
		case result.Kind == ledgererr.KindClaimConflict:
			reports = append(reports, ReconcileReport{AtomID: c.AtomID, Outcome: ReconcileConflict, Detail: result.Error})
			st.ClearOfflineClaim(c.AtomID)
		default:
			reports = append(reports, ReconcileReport{AtomID: c.AtomID, Outcome: ReconcileError, Detail: result.Error})
		}
	}

	if err := s.state.Save(st); err != nil {
		return reports, err
	}
	return reports, nil
}
