package ledger

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jtp184/eluent/internal/faketime"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// newBareRemote creates a bare repository standing in for the shared
// remote every clone pushes the ledger branch to.
func newBareRemote(t *testing.T) string {
	t.Helper()
	bare := filepath.Join(t.TempDir(), "bare.git")
	runGit(t, "", "init", "--bare", "-b", "main", bare)
	return bare
}

// newPrimaryClone creates a working clone of bare with a seeded main
// branch already pushed, standing in for the repository a Syncer is
// constructed against.
func newPrimaryClone(t *testing.T, bare string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "primary")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "remote", "add", "origin", bare)
	runGit(t, dir, "commit", "--allow-empty", "-m", "seed")
	runGit(t, dir, "push", "-u", "origin", "main")
	return dir
}

// testConfig returns a Config suitable for exercising the claim protocol
// against a throwaway bare repo in tests.
func testConfig() Config {
	return Config{
		Remote:         "origin",
		LedgerBranch:   "eluent-ledger",
		AutoClaimPush:  true,
		ClaimRetries:   5,
		OfflineMode:    OfflinePolicyLocal,
		NetworkTimeout: 5,
	}
}

// newTestSyncer builds a Syncer rooted at a fresh primary clone of a
// fresh bare remote, with per-user paths under a throwaway home
// directory, and a Fake clock so tests control time deterministically.
func newTestSyncer(t *testing.T, cfg Config) (*Syncer, string) {
	t.Helper()
	bare := newBareRemote(t)
	primary := newPrimaryClone(t, bare)
	home := filepath.Join(t.TempDir(), "home")

	s, err := New(primary, "testrepo", home, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.WithClock(faketime.NewFake(time.Unix(1_700_000_000, 0))), primary
}

// setupSyncer builds and sets up a Syncer (branch + worktree created).
func setupSyncer(t *testing.T, cfg Config) *Syncer {
	t.Helper()
	s, _ := newTestSyncer(t, cfg)
	result := s.Setup()
	if !result.Success {
		t.Fatalf("Setup() = %+v, want success", result)
	}
	return s
}

// seedAtoms writes data.jsonl in the ledger worktree with the given raw
// JSONL lines (one record per line, caller-supplied) and pushes it as
// the atom data file's first real content.
func seedAtoms(t *testing.T, s *Syncer, lines ...string) {
	t.Helper()
	dir := filepath.Join(s.paths.Worktree, ".eluent")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir .eluent: %v", err)
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, "data.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatalf("write data.jsonl: %v", err)
	}
	if err := s.PushLedger(context.Background(), "seed atoms"); err != nil {
		t.Fatalf("PushLedger(seed) error = %v", err)
	}
}

func openAtomLine(id string) string {
	return `{"id":"` + id + `","status":"open"}`
}

func inProgressAtomLine(id, assignee, updatedAt string) string {
	return `{"id":"` + id + `","status":"in_progress","assignee":"` + assignee + `","updated_at":"` + updatedAt + `"}`
}

func terminalAtomLine(id, status string) string {
	return `{"id":"` + id + `","status":"` + status + `"}`
}
