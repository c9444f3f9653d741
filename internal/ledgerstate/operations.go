package ledgerstate

import "time"

// InvalidateWorktree marks the worktree unhealthy, forcing the next
// operation to self-heal before proceeding.
func (st *State) InvalidateWorktree() {
	st.WorktreeValid = false
}

// UpdatePull records a successful pull against head at now, the caller's
// clock reading — kept an explicit parameter rather than time.Now() so
// every timestamp written to state flows through the same injected
// faketime.Clock the rest of the ledger package uses.
func (st *State) UpdatePull(head string, now time.Time) {
	now = now.UTC()
	st.LastPullAt = &now
	st.LedgerHead = head
	st.WorktreeValid = true
}

// UpdatePush records a successful push against the new head at now, the
// caller's clock reading.
func (st *State) UpdatePush(head string, now time.Time) {
	now = now.UTC()
	st.LastPushAt = &now
	st.LedgerHead = head
}

// RecordOfflineClaim enqueues an offline claim, replacing any existing
// entry for the same atom (most-recent-wins) and enforcing
// MaxOfflineClaims on overflow.
func (st *State) RecordOfflineClaim(atomID, agentID string, claimedAt time.Time) {
	atomID = truncateID(atomID)
	agentID = truncateID(agentID)

	for i, c := range st.OfflineClaims {
		if c.AtomID == atomID {
			st.OfflineClaims[i] = OfflineClaim{AtomID: atomID, AgentID: agentID, ClaimedAt: claimedAt}
			return
		}
	}

	st.OfflineClaims = append(st.OfflineClaims, OfflineClaim{
		AtomID: atomID, AgentID: agentID, ClaimedAt: claimedAt,
	})
	normalize(st)
}

// ClearOfflineClaim removes the queued offline claim for atomID, if any.
func (st *State) ClearOfflineClaim(atomID string) {
	atomID = truncateID(atomID)
	filtered := st.OfflineClaims[:0]
	for _, c := range st.OfflineClaims {
		if c.AtomID != atomID {
			filtered = append(filtered, c)
		}
	}
	st.OfflineClaims = filtered
}

// HasOfflineClaims reports whether any claims are queued for
// reconciliation.
func (st *State) HasOfflineClaims() bool {
	return len(st.OfflineClaims) > 0
}
