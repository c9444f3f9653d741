package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jtp184/eluent/internal/ledgererr"
)

func TestSyncer_PushLedger_NoopOnCleanWorktree(t *testing.T) {
	s := setupSyncer(t, testConfig())

	headBefore := runGit(t, s.paths.Worktree, "rev-parse", "HEAD")

	if err := s.PushLedger(bgCtx(), "should be a noop"); err != nil {
		t.Fatalf("PushLedger() on clean worktree error = %v", err)
	}

	headAfter := runGit(t, s.paths.Worktree, "rev-parse", "HEAD")
	if headBefore != headAfter {
		t.Errorf("PushLedger() on a clean worktree created a commit: before=%s after=%s", headBefore, headAfter)
	}
}

func TestSyncer_PushLedger_CommitsAndPushesChanges(t *testing.T) {
	s := setupSyncer(t, testConfig())

	dir := filepath.Join(s.paths.Worktree, ".eluent")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data.jsonl"), []byte(openAtomLine("atom-1")+"\n"), 0o644); err != nil {
		t.Fatalf("write data.jsonl: %v", err)
	}

	if err := s.PushLedger(bgCtx(), "add atom-1"); err != nil {
		t.Fatalf("PushLedger() error = %v", err)
	}

	localHead := runGit(t, s.paths.Worktree, "rev-parse", "HEAD")
	remoteHead := runGit(t, s.paths.Worktree, "rev-parse", "origin/eluent-ledger")
	if localHead != remoteHead {
		t.Errorf("remote eluent-ledger head = %s, want it to match local head %s", remoteHead, localHead)
	}

	st, err := s.state.Load()
	if err != nil {
		t.Fatalf("state.Load() error = %v", err)
	}
	if st.LastPushAt == nil {
		t.Error("state.LastPushAt not set after a successful push")
	}
}

func TestSyncer_PushLedger_RejectsWhenRemoteAdvanced(t *testing.T) {
	s := setupSyncer(t, testConfig())
	seedAtoms(t, s, openAtomLine("atom-1"))

	// A second writer clones the same ledger branch into its own
	// repository and pushes first, advancing the remote past what this
	// Syncer's worktree still thinks is the tip. A clone, not a second
	// worktree of the primary repository: git refuses to check out a
	// branch that this Syncer's worktree already has checked out.
	remoteURL, urlErr := s.primary.RemoteURL("origin")
	if urlErr != nil {
		t.Fatalf("RemoteURL(origin) error = %v", urlErr)
	}
	otherWorktree := filepath.Join(t.TempDir(), "other-worktree")
	runGit(t, "", "clone", "--branch", "eluent-ledger", remoteURL, otherWorktree)
	runGit(t, otherWorktree, "commit", "--allow-empty", "-m", "someone else's commit")
	runGit(t, otherWorktree, "push", "origin", "eluent-ledger")

	// This Syncer's worktree still has the old tip checked out; writing
	// to it and pushing should be rejected as a lost compare-and-set.
	if err := os.WriteFile(filepath.Join(s.paths.Worktree, ".eluent", "marker"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	err := s.PushLedger(bgCtx(), "stale push")
	if err == nil {
		t.Fatal("PushLedger() after remote advanced = nil error, want claim_conflict")
	}
	le, ok := err.(*ledgererr.LedgerError)
	if !ok || le.Kind != ledgererr.KindClaimConflict {
		t.Errorf("PushLedger() error = %v, want KindClaimConflict", err)
	}
}
