package ledger

// isStale implements the four staleness conditions of spec §4.5: missing
// worktree internals, HEAD unresolvable, branch mismatch, or an
// unregistered (orphaned) worktree directory.
func (s *Syncer) isStale() (bool, error) {
	list, err := s.primary.WorktreeList()
	if err != nil {
		return false, err
	}

	var found bool
	var branch string
	for _, wt := range list {
		if wt.Path == s.paths.Worktree {
			found = true
			branch = wt.Branch
			break
		}
	}
	if !found {
		return true, nil // orphaned: directory may exist but isn't registered
	}

	wtGateway := s.worktreeGateway()
	head, err := wtGateway.CurrentCommit()
	if err != nil || head == "" {
		return true, nil // HEAD unresolvable
	}

	if branch != s.cfg.LedgerBranch {
		return true, nil
	}

	return false, nil
}

// selfHeal removes and recreates the worktree: worktree_remove(force),
// worktree_prune, worktree_add. Nothing from the stale worktree is
// preserved; the ledger branch on the remote is authoritative.
func (s *Syncer) selfHeal() error {
	_ = s.primary.WorktreeRemove(s.paths.Worktree, true)
	if err := s.primary.WorktreePrune(); err != nil {
		return err
	}
	if err := s.primary.WorktreeAdd(s.paths.Worktree, s.cfg.LedgerBranch); err != nil {
		return err
	}

	st, err := s.state.Load()
	if err != nil {
		return err
	}
	st.WorktreeValid = true
	return s.state.Save(st)
}

// ensureHealthyWorktree self-heals when staleness is detected, as
// required before pull_ledger and claim_and_push proceed.
func (s *Syncer) ensureHealthyWorktree() error {
	stale, err := s.isStale()
	if err != nil {
		return err
	}
	if stale {
		return s.selfHeal()
	}
	return nil
}
