package ledger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// SyncResult reports the outcome of a primary-tree sync operation.
type SyncResult struct {
	Success        bool
	Error          string
	Conflicts      []string
	ChangesApplied int
}

// eluentDirName is the well-known directory both the primary tree and
// the ledger worktree keep their atom records under.
const eluentDirName = ".eluent"

// SyncToMain copies every file from the ledger worktree's .eluent/
// directory into the primary repository's .eluent/ directory, creating
// the parent directory and overwriting files as needed. Per DESIGN.md
// Open Question resolution 4, the ledger branch is authoritative for
// claim fields: this sweep overwrites the primary tree's copy wholesale
// rather than merging field-by-field.
func (s *Syncer) SyncToMain(primaryRepoPath string) SyncResult {
	src := filepath.Join(s.paths.Worktree, eluentDirName)
	dst := filepath.Join(primaryRepoPath, eluentDirName)

	n, err := copyTree(src, dst)
	if err != nil {
		return SyncResult{Error: err.Error()}
	}
	return SyncResult{Success: true, ChangesApplied: n}
}

// SeedFromMain copies the primary tree's existing .eluent/ directory into
// the ledger worktree, then commits and pushes it. It seeds a ledger
// branch from ledger-managed data the primary tree already had; Setup
// does not call it.
func (s *Syncer) SeedFromMain(ctx context.Context, primaryRepoPath string) error {
	src := filepath.Join(primaryRepoPath, eluentDirName)
	dst := filepath.Join(s.paths.Worktree, eluentDirName)

	if _, err := copyTree(src, dst); err != nil {
		return err
	}

	return s.PushLedger(ctx, "seed ledger from primary working tree")
}

func copyTree(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, ledgererr.Wrap(ledgererr.KindInternal, "reading "+src, err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, ledgererr.Wrap(ledgererr.KindInternal, "creating "+dst, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "opening "+src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "creating "+dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "copying "+src+" to "+dst, err)
	}
	return out.Sync()
}
