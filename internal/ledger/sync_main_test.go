package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSyncer_SyncToMain_CopiesLedgerDataIntoPrimaryTree(t *testing.T) {
	s, primary := newTestSyncer(t, testConfig())
	if result := s.Setup(); !result.Success {
		t.Fatalf("Setup() = %+v, want success", result)
	}
	seedAtoms(t, s, openAtomLine("atom-1"))
	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() error = %v", err)
	}

	result := s.SyncToMain(primary)
	if !result.Success {
		t.Fatalf("SyncToMain() = %+v, want success", result)
	}
	if result.ChangesApplied != 1 {
		t.Errorf("ChangesApplied = %d, want 1", result.ChangesApplied)
	}

	data, err := os.ReadFile(filepath.Join(primary, ".eluent", "data.jsonl"))
	if err != nil {
		t.Fatalf("reading copied data.jsonl: %v", err)
	}
	if len(data) == 0 {
		t.Error("copied data.jsonl is empty")
	}
}

func TestSyncer_SyncToMain_MissingSourceIsNotAnError(t *testing.T) {
	s, primary := newTestSyncer(t, testConfig())
	if result := s.Setup(); !result.Success {
		t.Fatalf("Setup() = %+v, want success", result)
	}

	result := s.SyncToMain(primary)
	if !result.Success {
		t.Fatalf("SyncToMain() with no ledger data yet = %+v, want success", result)
	}
	if result.ChangesApplied != 0 {
		t.Errorf("ChangesApplied = %d, want 0", result.ChangesApplied)
	}
}

func TestSyncer_SeedFromMain_CopiesAndCommitsPrimaryData(t *testing.T) {
	s, primary := newTestSyncer(t, testConfig())
	if result := s.Setup(); !result.Success {
		t.Fatalf("Setup() = %+v, want success", result)
	}

	primaryEluent := filepath.Join(primary, ".eluent")
	if err := os.MkdirAll(primaryEluent, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(primaryEluent, "data.jsonl"), []byte(openAtomLine("atom-1")+"\n"), 0o644); err != nil {
		t.Fatalf("write data.jsonl: %v", err)
	}

	if err := s.SeedFromMain(bgCtx(), primary); err != nil {
		t.Fatalf("SeedFromMain() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.paths.Worktree, ".eluent", "data.jsonl"))
	if err != nil {
		t.Fatalf("reading seeded worktree data.jsonl: %v", err)
	}
	if len(data) == 0 {
		t.Error("seeded worktree data.jsonl is empty")
	}

	remoteHead := runGit(t, s.paths.Worktree, "rev-parse", "origin/eluent-ledger")
	localHead := runGit(t, s.paths.Worktree, "rev-parse", "HEAD")
	if remoteHead != localHead {
		t.Error("SeedFromMain() did not push the seeded commit")
	}
}
