// Package ledgerstate persists the per-repository sync bookkeeping the
// Ledger Coordination Core needs between invocations: the last pull/push
// timestamps, the observed ledger head, worktree health, and any claims
// made while the remote was unreachable.
package ledgerstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jtp184/eluent/internal/ledgererr"
	"github.com/jtp184/eluent/internal/ledgerlock"
)

// CurrentSchemaVersion is the schema version this build writes and reads
// directly, without migration.
const CurrentSchemaVersion = 2

// MaxOfflineClaims bounds the offline claim queue; insertion beyond this
// drops the oldest entry.
const MaxOfflineClaims = 1000

// MaxIDLength is the truncation length applied to atom and agent IDs
// before they are stored.
const MaxIDLength = 256

// OfflineClaim is a claim made while the remote was unreachable, queued
// for later reconciliation.
type OfflineClaim struct {
	AtomID    string    `json:"atom_id"`
	AgentID   string    `json:"agent_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// State is the persisted record for one repository.
type State struct {
	SchemaVersion int            `json:"schema_version"`
	LastPullAt    *time.Time     `json:"last_pull_at,omitempty"`
	LastPushAt    *time.Time     `json:"last_push_at,omitempty"`
	LedgerHead    string         `json:"ledger_head,omitempty"`
	WorktreeValid bool           `json:"worktree_valid"`
	OfflineClaims []OfflineClaim `json:"offline_claims"`
}

// defaults returns a fresh State at the current schema version.
func defaults() *State {
	return &State{
		SchemaVersion: CurrentSchemaVersion,
		WorktreeValid: true,
		OfflineClaims: []OfflineClaim{},
	}
}

// Store loads and saves State for one repository, serializing writers on
// a FileLock and writing atomically via temp-file rename.
type Store struct {
	statePath string
	lockPath  string
	warned    bool
}

// NewStore creates a Store backed by the given state and lock file paths
// (typically eluentpaths.Paths.StateFile and .LockFile).
func NewStore(statePath, lockPath string) *Store {
	return &Store{statePath: statePath, lockPath: lockPath}
}

// Load reads the persisted State. A missing file returns defaults. A
// present-but-unparsable file is treated as corruption: it is deleted
// after emitting one warning, and defaults are returned. Load never
// fails the caller's operation on bad state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.statePath)
	if os.IsNotExist(err) {
		return defaults(), nil
	}
	if err != nil {
		return defaults(), nil
	}

	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		s.recoverFromCorruption(err)
		return defaults(), nil
	}

	version := versionOf(raw)
	if version > CurrentSchemaVersion {
		return nil, ledgererr.SchemaTooNew(version, CurrentSchemaVersion)
	}

	migrated, err := migrate(raw, version)
	if err != nil {
		s.recoverFromCorruption(err)
		return defaults(), nil
	}

	remarshaled, err := json.Marshal(migrated)
	if err != nil {
		s.recoverFromCorruption(err)
		return defaults(), nil
	}

	st := &State{}
	if err := json.Unmarshal(remarshaled, st); err != nil {
		s.recoverFromCorruption(err)
		return defaults(), nil
	}

	normalize(st)
	return st, nil
}

func (s *Store) recoverFromCorruption(cause error) {
	if !s.warned {
		fmt.Fprintf(os.Stderr, "eluent: ledger state at %s is corrupt (%v); resetting\n", s.statePath, cause)
		s.warned = true
	}
	_ = os.Remove(s.statePath)
}

// Save writes st atomically, holding the advisory lock for the duration
// of the write.
func (s *Store) Save(st *State) error {
	normalize(st)

	lock := ledgerlock.New(s.lockPath)
	return ledgerlock.WithLock(lock, func() error {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return ledgererr.Wrap(ledgererr.KindInternal, "marshaling ledger state", err)
		}

		dir := filepath.Dir(s.statePath)
		tmp, err := os.CreateTemp(dir, ".ledger-sync-state.*.tmp")
		if err != nil {
			return ledgererr.Wrap(ledgererr.KindInternal, "creating temp state file", err)
		}
		tmpPath := tmp.Name()

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return ledgererr.Wrap(ledgererr.KindInternal, "writing temp state file", err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return ledgererr.Wrap(ledgererr.KindInternal, "syncing temp state file", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpPath)
			return ledgererr.Wrap(ledgererr.KindInternal, "closing temp state file", err)
		}

		if err := os.Rename(tmpPath, s.statePath); err != nil {
			os.Remove(tmpPath)
			return ledgererr.Wrap(ledgererr.KindInternal, "renaming temp state file into place", err)
		}
		return nil
	})
}

// Exists reports whether a state file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.statePath)
	return err == nil
}

// Reset deletes the persisted state file, if any.
func (s *Store) Reset() error {
	err := os.Remove(s.statePath)
	if err != nil && !os.IsNotExist(err) {
		return ledgererr.Wrap(ledgererr.KindInternal, "removing ledger state file", err)
	}
	return nil
}

func versionOf(raw map[string]any) int {
	v, ok := raw["schema_version"]
	if !ok {
		return 1
	}
	f, ok := v.(float64)
	if !ok {
		return 1
	}
	return int(f)
}

// normalize trims and truncates IDs and enforces the offline-claim bound.
func normalize(st *State) {
	if st.OfflineClaims == nil {
		st.OfflineClaims = []OfflineClaim{}
	}
	for i := range st.OfflineClaims {
		st.OfflineClaims[i].AtomID = truncateID(st.OfflineClaims[i].AtomID)
		st.OfflineClaims[i].AgentID = truncateID(st.OfflineClaims[i].AgentID)
	}
	if len(st.OfflineClaims) > MaxOfflineClaims {
		dropped := len(st.OfflineClaims) - MaxOfflineClaims
		fmt.Fprintf(os.Stderr, "eluent: offline claim queue exceeded %d entries; dropping %d oldest\n",
			MaxOfflineClaims, dropped)
		st.OfflineClaims = st.OfflineClaims[dropped:]
	}
}

func truncateID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > MaxIDLength {
		id = id[:MaxIDLength]
	}
	return id
}
