package atomrecord

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeDataFile(t *testing.T, worktree string, lines []string) {
	t.Helper()
	dir := filepath.Join(worktree, ".eluent")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, DataFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFind_LocatesRecordPreservingUnknownFields(t *testing.T) {
	worktree := t.TempDir()
	writeDataFile(t, worktree, []string{
		`{"id":"a1","status":"open","assignee":null,"updated_at":"2025-01-01T00:00:00Z","title":"Do the thing","priority":3}`,
		`{"id":"a2","status":"closed","assignee":null,"updated_at":"2025-01-02T00:00:00Z"}`,
	})

	rec, err := Find(worktree, "a1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if rec.Status != "open" {
		t.Errorf("Status = %q, want open", rec.Status)
	}
	if rec.Assignee != nil {
		t.Errorf("Assignee = %v, want nil", rec.Assignee)
	}
}

func TestFind_NotFound(t *testing.T) {
	worktree := t.TempDir()
	writeDataFile(t, worktree, []string{`{"id":"a1","status":"open"}`})

	_, err := Find(worktree, "missing")
	if err != ErrAtomNotFound {
		t.Fatalf("Find() error = %v, want ErrAtomNotFound", err)
	}
}

func TestRewrite_PreservesUnknownFieldsAndOtherLines(t *testing.T) {
	worktree := t.TempDir()
	writeDataFile(t, worktree, []string{
		`{"id":"a1","status":"open","assignee":null,"updated_at":"2025-01-01T00:00:00Z","title":"Do the thing","priority":3}`,
		`{"id":"a2","status":"blocked","assignee":null,"updated_at":"2025-01-02T00:00:00Z","bonds":["a1"]}`,
	})

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := Rewrite(worktree, "a1", func(r Record) Record {
		r.Status = StatusInProgress
		r.SetAssignee("agent-x")
		r.Touch(now)
		return r
	})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	rec, err := Find(worktree, "a1")
	if err != nil {
		t.Fatalf("Find() after rewrite error = %v", err)
	}
	if rec.Status != StatusInProgress {
		t.Errorf("Status = %q, want in_progress", rec.Status)
	}
	if rec.Assignee == nil || *rec.Assignee != "agent-x" {
		t.Errorf("Assignee = %v, want agent-x", rec.Assignee)
	}
	if rec.UpdatedAt == nil || !rec.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, now)
	}

	data, err := os.ReadFile(filepath.Join(worktree, ".eluent", DataFileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"title":"Do the thing"`) {
		t.Errorf("rewritten file dropped unknown field: %s", data)
	}
	if !strings.Contains(string(data), `"bonds":["a1"]`) {
		t.Errorf("rewritten file altered unrelated line: %s", data)
	}

	other, err := Find(worktree, "a2")
	if err != nil {
		t.Fatalf("Find(a2) error = %v", err)
	}
	if other.Status != StatusBlocked {
		t.Errorf("a2 Status = %q, want unchanged blocked", other.Status)
	}
}

func TestRewrite_AtomNotFoundLeavesFileUntouched(t *testing.T) {
	worktree := t.TempDir()
	writeDataFile(t, worktree, []string{`{"id":"a1","status":"open"}`})

	before, _ := os.ReadFile(filepath.Join(worktree, ".eluent", DataFileName))

	err := Rewrite(worktree, "missing", func(r Record) Record { return r })
	if err != ErrAtomNotFound {
		t.Fatalf("Rewrite() error = %v, want ErrAtomNotFound", err)
	}

	after, _ := os.ReadFile(filepath.Join(worktree, ".eluent", DataFileName))
	if string(before) != string(after) {
		t.Error("file was modified despite atom not found")
	}
}

func TestIsTerminal(t *testing.T) {
	cases := map[string]bool{
		StatusOpen:       false,
		StatusInProgress: false,
		StatusBlocked:    false,
		StatusDeferred:   false,
		StatusClosed:     true,
		StatusDiscard:    true,
	}
	for status, want := range cases {
		if got := IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}
