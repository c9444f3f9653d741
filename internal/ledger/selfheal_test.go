package ledger

import (
	"os"
	"testing"
)

func TestSyncer_IsStale_FalseRightAfterSetup(t *testing.T) {
	s := setupSyncer(t, testConfig())

	stale, err := s.isStale()
	if err != nil {
		t.Fatalf("isStale() error = %v", err)
	}
	if stale {
		t.Error("isStale() = true immediately after Setup(), want false")
	}
}

func TestSyncer_IsStale_TrueWhenWorktreeUnregistered(t *testing.T) {
	s, _ := newTestSyncer(t, testConfig())
	// Never call Setup(): no worktree is registered at all.

	stale, err := s.isStale()
	if err != nil {
		t.Fatalf("isStale() error = %v", err)
	}
	if !stale {
		t.Error("isStale() = false with no worktree registered, want true")
	}
}

func TestSyncer_IsStale_TrueWhenHeadUnresolvable(t *testing.T) {
	s := setupSyncer(t, testConfig())

	if err := os.RemoveAll(s.paths.Worktree); err != nil {
		t.Fatalf("RemoveAll(worktree) error = %v", err)
	}

	stale, err := s.isStale()
	if err != nil {
		t.Fatalf("isStale() error = %v", err)
	}
	if !stale {
		t.Error("isStale() = false after deleting the worktree directory, want true")
	}
}

func TestSyncer_SelfHeal_RecreatesWorktree(t *testing.T) {
	s := setupSyncer(t, testConfig())
	seedAtoms(t, s, openAtomLine("atom-1"))

	if err := os.RemoveAll(s.paths.Worktree); err != nil {
		t.Fatalf("RemoveAll(worktree) error = %v", err)
	}

	if err := s.selfHeal(); err != nil {
		t.Fatalf("selfHeal() error = %v", err)
	}

	stale, err := s.isStale()
	if err != nil {
		t.Fatalf("isStale() error = %v", err)
	}
	if stale {
		t.Error("isStale() = true after selfHeal(), want false")
	}
}

func TestSyncer_EnsureHealthyWorktree_NoopWhenHealthy(t *testing.T) {
	s := setupSyncer(t, testConfig())

	if err := s.ensureHealthyWorktree(); err != nil {
		t.Fatalf("ensureHealthyWorktree() error = %v", err)
	}
}
