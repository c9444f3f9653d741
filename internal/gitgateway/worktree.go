package gitgateway

import (
	"strings"
	"sync"
)

// WorktreeInfo describes one entry from `git worktree list --porcelain`.
type WorktreeInfo struct {
	Path     string
	Head     string
	Branch   string
	Bare     bool
	Detached bool
	Locked   bool
	Prunable bool
}

// worktreeMu serializes worktree add/remove/prune against the primary
// tree's own git directory, since `git worktree` mutates shared
// administrative state under .git/worktrees regardless of which
// checkout issues the command.
var worktreeMu sync.Mutex

// WorktreeList lists all worktrees registered against the primary tree,
// including the primary tree itself as the first entry.
func (g *Gateway) WorktreeList() ([]WorktreeInfo, error) {
	out, err := g.run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(out string) []WorktreeInfo {
	var result []WorktreeInfo
	var cur *WorktreeInfo

	flush := func() {
		if cur != nil {
			result = append(result, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur = &WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case cur == nil:
			continue
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case line == "bare":
			cur.Bare = true
		case line == "detached":
			cur.Detached = true
		case strings.HasPrefix(line, "locked"):
			cur.Locked = true
		case strings.HasPrefix(line, "prunable"):
			cur.Prunable = true
		}
	}
	flush()
	return result
}

// WorktreeAdd registers a new worktree at path checked out to branch. The
// branch must already exist; WorktreeAdd never creates one, matching the
// Ledger Coordination Core's strict separation between branch creation
// (CreateOrphanBranch, once, at setup) and worktree attachment (every
// sync).
func (g *Gateway) WorktreeAdd(path, branch string) error {
	if err := ValidateBranchName(branch); err != nil {
		return err
	}
	worktreeMu.Lock()
	defer worktreeMu.Unlock()

	_, err := g.run("worktree", "add", path, branch)
	return err
}

// WorktreeRemove detaches the worktree at path. When force is true, it
// removes the worktree even with local modifications, which is the
// expected path for a self-heal: a worktree flagged stale or corrupt is
// not worth preserving edits from.
func (g *Gateway) WorktreeRemove(path string, force bool) error {
	worktreeMu.Lock()
	defer worktreeMu.Unlock()

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.run(args...)
	return err
}

// WorktreePrune clears administrative state for worktrees whose
// directories have been deleted out from under git (e.g. by a prior
// crashed process or an operator's rm -rf).
func (g *Gateway) WorktreePrune() error {
	worktreeMu.Lock()
	defer worktreeMu.Unlock()

	_, err := g.run("worktree", "prune")
	return err
}

// AtPath returns a Gateway rooted at path (typically a worktree checkout
// of this gateway's repository), sharing the same network limiter.
// Commands issued through it are serialized independently of the
// primary tree's gateway, since the two checkouts operate on disjoint
// working directories.
func (g *Gateway) AtPath(path string) *Gateway {
	return &Gateway{workdir: path, limiter: g.limiter, extraEnv: g.extraEnv}
}
