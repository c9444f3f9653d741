package ledger

import (
	"time"

	"github.com/jtp184/eluent/internal/atomrecord"
)

// releaseStaleAtoms resets every in_progress atom whose updated_at is
// older than threshold back to open/unassigned, in one pass over
// data.jsonl, and reports how many records changed.
func releaseStaleAtoms(worktree string, threshold time.Time) (int, error) {
	return atomrecord.RewriteAll(worktree, func(rec atomrecord.Record) (atomrecord.Record, bool) {
		if rec.Status != atomrecord.StatusInProgress {
			return rec, false
		}
		if rec.UpdatedAt == nil || rec.UpdatedAt.After(threshold) {
			return rec, false
		}
		rec.Status = atomrecord.StatusOpen
		rec.SetAssignee("")
		return rec, true
	})
}
