// Package atomrecord reads and rewrites the line-delimited JSON atom
// records in a ledger worktree's .eluent/data.jsonl, preserving every
// field the core does not itself interpret.
package atomrecord

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// StatusOpen and friends enumerate the atom lifecycle states the core
// understands. Any other value round-trips unchanged but is never
// produced by a claim/release rewrite.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDeferred   = "deferred"
	StatusClosed     = "closed"
	StatusDiscard    = "discard"
)

// IsTerminal reports whether status is a terminal state: claims against
// terminal atoms are always rejected.
func IsTerminal(status string) bool {
	return status == StatusClosed || status == StatusDiscard
}

// Record is one line of data.jsonl: the three fields the core reads or
// writes, plus every other field as raw JSON so a claim/release rewrite
// never drops data it doesn't understand.
type Record struct {
	ID        string
	Status    string
	Assignee  *string
	UpdatedAt *time.Time
	fields    map[string]json.RawMessage
}

// DataFileName is the relative path, within the ledger worktree's
// .eluent directory, of the atom records file.
const DataFileName = "data.jsonl"

func decodeLine(line []byte) (Record, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(line, &fields); err != nil {
		return Record{}, err
	}

	r := Record{fields: fields}

	if raw, ok := fields["id"]; ok {
		_ = json.Unmarshal(raw, &r.ID)
	}
	if raw, ok := fields["status"]; ok {
		_ = json.Unmarshal(raw, &r.Status)
	}
	if raw, ok := fields["assignee"]; ok {
		var assignee *string
		_ = json.Unmarshal(raw, &assignee)
		r.Assignee = assignee
	}
	if raw, ok := fields["updated_at"]; ok {
		var ts *time.Time
		if err := json.Unmarshal(raw, &ts); err == nil {
			r.UpdatedAt = ts
		}
	}

	return r, nil
}

func (r *Record) encode() ([]byte, error) {
	idRaw, _ := json.Marshal(r.ID)
	statusRaw, _ := json.Marshal(r.Status)
	assigneeRaw, _ := json.Marshal(r.Assignee)

	out := map[string]json.RawMessage{}
	for k, v := range r.fields {
		out[k] = v
	}
	out["id"] = idRaw
	out["status"] = statusRaw
	out["assignee"] = assigneeRaw

	if r.UpdatedAt != nil {
		updatedRaw, _ := json.Marshal(r.UpdatedAt)
		out["updated_at"] = updatedRaw
	} else {
		delete(out, "updated_at")
	}

	return json.Marshal(out)
}

// SetAssignee sets the assignee field, or clears it when agentID is "".
func (r *Record) SetAssignee(agentID string) {
	if agentID == "" {
		r.Assignee = nil
		return
	}
	r.Assignee = &agentID
}

// Touch sets UpdatedAt to the given instant.
func (r *Record) Touch(at time.Time) {
	at = at.UTC()
	r.UpdatedAt = &at
}

// ErrAtomNotFound is returned by Find when no record matches atomID.
var ErrAtomNotFound = fmt.Errorf("atom not found")

// dataPath joins the ledger worktree path with the well-known data file
// location.
func dataPath(worktree string) string {
	return filepath.Join(worktree, ".eluent", DataFileName)
}

// Find scans data.jsonl in worktree for the record with the given
// atom ID.
func Find(worktree, atomID string) (Record, error) {
	f, err := os.Open(dataPath(worktree))
	if err != nil {
		return Record{}, ledgererr.Wrap(ledgererr.KindGitFailure, "opening atom data file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		rec, err := decodeLine(line)
		if err != nil {
			continue
		}
		if rec.ID == atomID {
			return rec, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Record{}, ledgererr.Wrap(ledgererr.KindGitFailure, "reading atom data file", err)
	}

	return Record{}, ErrAtomNotFound
}

// Rewrite copies every record in data.jsonl unchanged except the one
// matching atomID, which is replaced by mutate's return value. The file
// is written to a pid-suffixed temp file, fsynced, then renamed over the
// original. If atomID is not found, ErrAtomNotFound is returned and the
// file is left untouched.
func Rewrite(worktree, atomID string, mutate func(Record) Record) error {
	path := dataPath(worktree)

	f, err := os.Open(path)
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindGitFailure, "opening atom data file", err)
	}
	defer f.Close()

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "creating temp atom data file", err)
	}

	found := false
	writeErr := func() error {
		writer := bufio.NewWriter(tmp)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}

			rec, decErr := decodeLine(line)
			if decErr != nil {
				if _, err := writer.Write(line); err != nil {
					return err
				}
				if err := writer.WriteByte('\n'); err != nil {
					return err
				}
				continue
			}

			if rec.ID == atomID {
				found = true
				rec = mutate(rec)
				encoded, encErr := rec.encode()
				if encErr != nil {
					return encErr
				}
				if _, err := writer.Write(encoded); err != nil {
					return err
				}
			} else {
				if _, err := writer.Write(line); err != nil {
					return err
				}
			}
			if err := writer.WriteByte('\n'); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return writer.Flush()
	}()

	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}

	if writeErr != nil {
		os.Remove(tmpPath)
		return ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom", writeErr)
	}

	if !found {
		os.Remove(tmpPath)
		return ErrAtomNotFound
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ledgererr.Wrap(ledgererr.KindInternal, "renaming temp atom data file into place", err)
	}

	return nil
}

// RewriteAll applies mutate to every record in data.jsonl. mutate
// returns the (possibly unchanged) record and whether it was modified;
// RewriteAll reports how many records were changed. Unlike Rewrite, a
// file containing zero matches is not an error: callers use this for
// bulk sweeps (e.g. stale-claim auto-release) where finding nothing to
// do is the common case.
func RewriteAll(worktree string, mutate func(Record) (Record, bool)) (int, error) {
	path := dataPath(worktree)

	f, err := os.Open(path)
	if err != nil {
		return 0, ledgererr.Wrap(ledgererr.KindGitFailure, "opening atom data file", err)
	}
	defer f.Close()

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, ledgererr.Wrap(ledgererr.KindInternal, "creating temp atom data file", err)
	}

	changed := 0
	writeErr := func() error {
		writer := bufio.NewWriter(tmp)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}

			rec, decErr := decodeLine(line)
			if decErr != nil {
				if _, err := writer.Write(line); err != nil {
					return err
				}
				if err := writer.WriteByte('\n'); err != nil {
					return err
				}
				continue
			}

			mutated, did := mutate(rec)
			if did {
				changed++
				encoded, encErr := mutated.encode()
				if encErr != nil {
					return encErr
				}
				if _, err := writer.Write(encoded); err != nil {
					return err
				}
			} else {
				if _, err := writer.Write(line); err != nil {
					return err
				}
			}
			if err := writer.WriteByte('\n'); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return writer.Flush()
	}()

	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}

	if writeErr != nil {
		os.Remove(tmpPath)
		return 0, ledgererr.Wrap(ledgererr.KindInternal, "failed to update atom data file", writeErr)
	}

	if changed == 0 {
		os.Remove(tmpPath)
		return 0, nil
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, ledgererr.Wrap(ledgererr.KindInternal, "renaming temp atom data file into place", err)
	}

	return changed, nil
}
