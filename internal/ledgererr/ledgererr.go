// Package ledgererr defines the typed error taxonomy the Ledger
// Coordination Core returns across its public API. Every public method of
// LedgerSyncer converts recoverable failures into a LedgerError carried in
// a value record rather than raising; exceptional control flow is reserved
// for precondition violations.
package ledgererr

import "fmt"

// Kind identifies the category of a LedgerError.
type Kind string

const (
	KindAtomNotFound       Kind = "atom_not_found"
	KindAtomTerminal       Kind = "atom_terminal"
	KindClaimConflict      Kind = "claim_conflict"
	KindMaxRetriesExceeded Kind = "max_retries_exceeded"
	KindLedgerNotConfigured Kind = "ledger_not_configured"
	KindLedgerUnhealthy    Kind = "ledger_unhealthy"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindTimeout            Kind = "timeout"
	KindBranchInvalid      Kind = "branch_invalid"
	KindWorktreeCorrupt    Kind = "worktree_corrupt"
	KindGitFailure         Kind = "git_failure"
	KindStateCorrupt       Kind = "state_corrupt"
	KindSchemaTooNew       Kind = "schema_too_new"
	KindInternal           Kind = "internal_error"
)

// LedgerError is a structured error with context, carrying the Kind taxonomy
// from spec §7. It wraps an underlying cause where one exists.
type LedgerError struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// UserFriendlyMessage renders the message plus hint for CLI display.
func (e *LedgerError) UserFriendlyMessage() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nSuggestion: " + e.Hint
	}
	return msg
}

// New creates a LedgerError with no wrapped cause.
func New(kind Kind, message string) *LedgerError {
	return &LedgerError{Kind: kind, Message: message}
}

// Wrap creates a LedgerError around an existing error.
func Wrap(kind Kind, message string, err error) *LedgerError {
	return &LedgerError{Kind: kind, Message: message, Err: err}
}

// WithHint attaches a remediation hint, returning the same error for chaining.
func WithHint(err *LedgerError, hint string) *LedgerError {
	err.Hint = hint
	return err
}

// Common constructors, one per user-visible scenario in spec §7.

func AtomNotFound(atomID string) *LedgerError {
	return New(KindAtomNotFound, fmt.Sprintf("atom %q not found in ledger", atomID))
}

func AtomTerminal(atomID, status string) *LedgerError {
	return New(KindAtomTerminal, fmt.Sprintf("cannot claim %q in %s state", atomID, status))
}

func ClaimConflict(atomID, owner string) *LedgerError {
	return WithHint(
		New(KindClaimConflict, fmt.Sprintf("atom %q already claimed by %q", atomID, owner)),
		"Pick a different atom, or wait for the current owner to release it.",
	)
}

func MaxRetriesExceeded(retries int) *LedgerError {
	return WithHint(
		New(KindMaxRetriesExceeded, fmt.Sprintf("exceeded %d retries without resolving the claim", retries)),
		"Contention is high on this atom; retry later or reduce the number of agents contending for it.",
	)
}

func LedgerNotConfigured() *LedgerError {
	return WithHint(
		New(KindLedgerNotConfigured, "ledger sync is not configured"),
		"Set sync.ledger_branch in .eluent/config.yml and run 'sync --setup-ledger'.",
	)
}

func LedgerUnhealthy(reason string) *LedgerError {
	return WithHint(
		New(KindLedgerUnhealthy, fmt.Sprintf("ledger is unhealthy: %s", reason)),
		"Run 'sync --setup-ledger' or 'sync --force-resync' to rebuild the worktree.",
	)
}

func NetworkUnreachable(op string, err error) *LedgerError {
	return WithHint(
		Wrap(KindNetworkUnreachable, fmt.Sprintf("remote unreachable during %s", op), err),
		"Check network connectivity, or set sync.offline_mode to 'local' to queue claims offline.",
	)
}

func Timeout(op string, err error) *LedgerError {
	return Wrap(KindTimeout, fmt.Sprintf("%s exceeded its network timeout", op), err)
}

func BranchInvalid(name, reason string) *LedgerError {
	return New(KindBranchInvalid, fmt.Sprintf("invalid branch name %q: %s", name, reason))
}

func WorktreeCorrupt(reason string) *LedgerError {
	return New(KindWorktreeCorrupt, fmt.Sprintf("ledger worktree is stale: %s", reason))
}

func GitFailure(op string, err error) *LedgerError {
	return Wrap(KindGitFailure, fmt.Sprintf("git %s failed", op), err)
}

func StateCorrupt(err error) *LedgerError {
	return Wrap(KindStateCorrupt, "ledger state file is corrupted", err)
}

func SchemaTooNew(found, supported int) *LedgerError {
	return WithHint(
		New(KindSchemaTooNew, fmt.Sprintf("ledger state schema v%d is newer than supported v%d", found, supported)),
		"Upgrade eluent to a version that understands this state schema.",
	)
}

func Internal(message string, err error) *LedgerError {
	if err != nil {
		return Wrap(KindInternal, message, err)
	}
	return New(KindInternal, message)
}
