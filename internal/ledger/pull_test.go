package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jtp184/eluent/internal/atomrecord"
)

func TestSyncer_PullLedger_FetchesRemoteChangesAndUpdatesState(t *testing.T) {
	s := setupSyncer(t, testConfig())
	seedAtoms(t, s, openAtomLine("atom-1"))

	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() error = %v", err)
	}

	data := filepath.Join(s.paths.Worktree, ".eluent", "data.jsonl")
	if _, err := os.Stat(data); err != nil {
		t.Fatalf("expected data.jsonl in worktree after pull: %v", err)
	}

	st, err := s.state.Load()
	if err != nil {
		t.Fatalf("state.Load() error = %v", err)
	}
	if st.LastPullAt == nil {
		t.Error("state.LastPullAt not set after PullLedger")
	}
	if st.LedgerHead == "" {
		t.Error("state.LedgerHead not set after PullLedger")
	}
}

func TestSyncer_PullLedger_SelfHealsOrphanedWorktree(t *testing.T) {
	s := setupSyncer(t, testConfig())
	seedAtoms(t, s, openAtomLine("atom-1"))

	// Simulate a crashed process that deleted the worktree directory
	// without telling git: the administrative registration survives,
	// but HEAD can no longer be resolved, tripping isStale's second
	// condition.
	if err := os.RemoveAll(s.paths.Worktree); err != nil {
		t.Fatalf("RemoveAll(worktree) error = %v", err)
	}

	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() after worktree deletion error = %v", err)
	}

	if _, err := os.Stat(s.paths.Worktree); err != nil {
		t.Fatalf("expected worktree recreated by self-heal: %v", err)
	}
}

func TestSyncer_PullLedger_AutoReleasesStaleClaims(t *testing.T) {
	cfg := testConfig()
	cfg.ClaimTimeoutHours = 1
	s := setupSyncer(t, cfg)

	clock := s.clock
	old := clock.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	seedAtoms(t, s,
		inProgressAtomLine("atom-stale", "agent-a", old),
		openAtomLine("atom-fresh"),
	)

	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() error = %v", err)
	}

	rec, err := atomrecord.Find(s.paths.Worktree, "atom-stale")
	if err != nil {
		t.Fatalf("Find(atom-stale) error = %v", err)
	}
	if rec.Status != atomrecord.StatusOpen {
		t.Errorf("atom-stale status = %q, want open after auto-release", rec.Status)
	}
	if rec.Assignee != nil {
		t.Errorf("atom-stale assignee = %q, want cleared after auto-release", *rec.Assignee)
	}

	rec2, err := atomrecord.Find(s.paths.Worktree, "atom-fresh")
	if err != nil {
		t.Fatalf("Find(atom-fresh) error = %v", err)
	}
	if rec2.Status != atomrecord.StatusOpen {
		t.Errorf("atom-fresh status = %q, want unchanged open", rec2.Status)
	}
}

func TestSyncer_PullLedger_NoAutoReleaseWhenTimeoutDisabled(t *testing.T) {
	s := setupSyncer(t, testConfig()) // ClaimTimeoutHours defaults to 0 (disabled)

	old := s.clock.Now().Add(-100 * time.Hour).UTC().Format(time.RFC3339)
	seedAtoms(t, s, inProgressAtomLine("atom-stale", "agent-a", old))

	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() error = %v", err)
	}

	rec, err := atomrecord.Find(s.paths.Worktree, "atom-stale")
	if err != nil {
		t.Fatalf("Find(atom-stale) error = %v", err)
	}
	if rec.Status != atomrecord.StatusInProgress {
		t.Errorf("atom-stale status = %q, want unchanged in_progress with auto-release disabled", rec.Status)
	}
}
