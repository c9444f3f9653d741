package ledger

import (
	"context"

	"github.com/jtp184/eluent/internal/ghpreflight"
	"github.com/jtp184/eluent/internal/ledgererr"
)

// SetupResult distinguishes first-time initialization from an idempotent
// re-invocation.
type SetupResult struct {
	Success           bool
	Error             string
	CreatedBranch     bool
	CreatedWorktree   bool
	ProtectionWarning string
}

// Setup is idempotent: it ensures the per-user directories exist, the
// ledger branch exists (creating it as an orphan branch if not), and the
// worktree is registered at the expected path.
func (s *Syncer) Setup() SetupResult {
	if s.cfg.LedgerBranch == "" {
		return SetupResult{Error: ledgererr.LedgerNotConfigured().Error()}
	}

	if err := s.paths.EnsureDirectories(); err != nil {
		return SetupResult{Error: err.Error()}
	}

	result := SetupResult{Success: true}

	localExists, err := s.primary.BranchExists(s.cfg.LedgerBranch, "")
	if err != nil {
		return SetupResult{Error: err.Error()}
	}
	remoteExists := false
	if !localExists {
		remoteExists, err = s.primary.BranchExists(s.cfg.LedgerBranch, s.cfg.Remote)
		if err != nil {
			return SetupResult{Error: err.Error()}
		}
	}

	if !localExists && !remoteExists {
		if url, err := s.primary.RemoteURL(s.cfg.Remote); err == nil {
			if warning, err := ghpreflight.Check(context.Background(), url, s.cfg.LedgerBranch); err == nil && warning != nil {
				result.ProtectionWarning = warning.Detail
			}
		}

		msg := s.cfg.LedgerBranch + ": initial ledger commit"
		if err := s.primary.CreateOrphanBranch(s.cfg.LedgerBranch, msg); err != nil {
			return SetupResult{Error: err.Error()}
		}
		if err := s.pushLedgerBranchSetup(); err != nil {
			return SetupResult{Error: err.Error()}
		}
		result.CreatedBranch = true
	}

	registered, err := s.worktreeRegistered()
	if err != nil {
		return SetupResult{Error: err.Error()}
	}
	if !registered {
		if err := s.primary.WorktreeAdd(s.paths.Worktree, s.cfg.LedgerBranch); err != nil {
			return SetupResult{Error: err.Error()}
		}
		result.CreatedWorktree = true
	}

	return result
}

func (s *Syncer) worktreeRegistered() (bool, error) {
	list, err := s.primary.WorktreeList()
	if err != nil {
		return false, err
	}
	for _, wt := range list {
		if wt.Path == s.paths.Worktree {
			return true, nil
		}
	}
	return false, nil
}

// pushLedgerBranchSetup pushes the freshly created orphan branch with
// upstream tracking. CreateOrphanBranch already restored the caller's
// original branch before this runs, so the push operates against the
// branch by name, not the checked-out HEAD.
func (s *Syncer) pushLedgerBranchSetup() error {
	_, err := s.primary.PushBranch(bgCtx(), s.cfg.Remote, s.cfg.LedgerBranch, true, s.networkTimeout())
	return err
}

// Teardown removes the worktree, prunes administrative state, and
// deletes the state and lock files. Idempotent when the worktree is
// already absent.
func (s *Syncer) Teardown() error {
	_ = s.primary.WorktreeRemove(s.paths.Worktree, true)
	if err := s.primary.WorktreePrune(); err != nil {
		return err
	}
	if err := s.state.Reset(); err != nil {
		return err
	}
	return removeIfExists(s.paths.LockFile)
}
