package ledger

import "testing"

func TestSyncer_Setup_CreatesBranchAndWorktree(t *testing.T) {
	s, _ := newTestSyncer(t, testConfig())

	result := s.Setup()
	if !result.Success {
		t.Fatalf("Setup() = %+v, want success", result)
	}
	if !result.CreatedBranch {
		t.Error("Setup().CreatedBranch = false, want true on first run")
	}
	if !result.CreatedWorktree {
		t.Error("Setup().CreatedWorktree = false, want true on first run")
	}

	exists, err := s.primary.BranchExists("eluent-ledger", "")
	if err != nil {
		t.Fatalf("BranchExists() error = %v", err)
	}
	if !exists {
		t.Error("ledger branch not created locally")
	}

	registered, err := s.worktreeRegistered()
	if err != nil {
		t.Fatalf("worktreeRegistered() error = %v", err)
	}
	if !registered {
		t.Error("ledger worktree not registered")
	}
}

func TestSyncer_Setup_IdempotentSecondRun(t *testing.T) {
	s, _ := newTestSyncer(t, testConfig())

	if result := s.Setup(); !result.Success {
		t.Fatalf("first Setup() = %+v, want success", result)
	}

	result := s.Setup()
	if !result.Success {
		t.Fatalf("second Setup() = %+v, want success", result)
	}
	if result.CreatedBranch {
		t.Error("second Setup().CreatedBranch = true, want false (idempotent)")
	}
	if result.CreatedWorktree {
		t.Error("second Setup().CreatedWorktree = true, want false (idempotent)")
	}
}

func TestSyncer_Setup_NotConfiguredWithoutLedgerBranch(t *testing.T) {
	cfg := testConfig()
	cfg.LedgerBranch = ""
	s, _ := newTestSyncer(t, cfg)

	result := s.Setup()
	if result.Success {
		t.Fatal("Setup() with no ledger branch configured = success, want failure")
	}
	if result.Error == "" {
		t.Error("Setup() with no ledger branch configured left Error empty")
	}
}

func TestSyncer_Teardown_RemovesWorktreeAndState(t *testing.T) {
	s := setupSyncer(t, testConfig())
	seedAtoms(t, s, openAtomLine("atom-1"))

	if err := s.PullLedger(bgCtx()); err != nil {
		t.Fatalf("PullLedger() error = %v", err)
	}
	if !s.state.Exists() {
		t.Fatal("expected state file to exist after a pull")
	}

	if err := s.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	registered, err := s.worktreeRegistered()
	if err != nil {
		t.Fatalf("worktreeRegistered() error = %v", err)
	}
	if registered {
		t.Error("worktree still registered after Teardown()")
	}
	if s.state.Exists() {
		t.Error("state file still present after Teardown()")
	}
}

func TestSyncer_Teardown_IdempotentWhenAlreadyTornDown(t *testing.T) {
	s := setupSyncer(t, testConfig())

	if err := s.Teardown(); err != nil {
		t.Fatalf("first Teardown() error = %v", err)
	}
	if err := s.Teardown(); err != nil {
		t.Fatalf("second Teardown() error = %v, want nil (idempotent)", err)
	}
}
