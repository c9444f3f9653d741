package ledgererr

import (
	"errors"
	"testing"
)

func TestLedgerError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *LedgerError
		expected string
	}{
		{
			name:     "error without wrapped error",
			err:      &LedgerError{Kind: KindGitFailure, Message: "test error"},
			expected: "git_failure: test error",
		},
		{
			name:     "error with wrapped error",
			err:      &LedgerError{Kind: KindNetworkUnreachable, Message: "push failed", Err: errors.New("connection refused")},
			expected: "network_unreachable: push failed (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLedgerError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindInternal, "wrapped", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to unwrap to cause")
	}
}

func TestUserFriendlyMessage(t *testing.T) {
	err := WithHint(New(KindClaimConflict, "already claimed"), "try another atom")
	want := "already claimed\n\nSuggestion: try another atom"
	if got := err.UserFriendlyMessage(); got != want {
		t.Errorf("UserFriendlyMessage() = %q, want %q", got, want)
	}
}

func TestConstructors_KindMapping(t *testing.T) {
	cases := []struct {
		name string
		err  *LedgerError
		kind Kind
	}{
		{"AtomNotFound", AtomNotFound("a1"), KindAtomNotFound},
		{"AtomTerminal", AtomTerminal("a1", "closed"), KindAtomTerminal},
		{"ClaimConflict", ClaimConflict("a1", "agent-y"), KindClaimConflict},
		{"MaxRetriesExceeded", MaxRetriesExceeded(5), KindMaxRetriesExceeded},
		{"LedgerNotConfigured", LedgerNotConfigured(), KindLedgerNotConfigured},
		{"LedgerUnhealthy", LedgerUnhealthy("stale"), KindLedgerUnhealthy},
		{"NetworkUnreachable", NetworkUnreachable("fetch", errors.New("x")), KindNetworkUnreachable},
		{"Timeout", Timeout("push", errors.New("x")), KindTimeout},
		{"BranchInvalid", BranchInvalid("-bad", "leading dash"), KindBranchInvalid},
		{"WorktreeCorrupt", WorktreeCorrupt("missing .git"), KindWorktreeCorrupt},
		{"GitFailure", GitFailure("push", errors.New("x")), KindGitFailure},
		{"StateCorrupt", StateCorrupt(errors.New("x")), KindStateCorrupt},
		{"SchemaTooNew", SchemaTooNew(3, 2), KindSchemaTooNew},
		{"Internal", Internal("oops", nil), KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Kind != tc.kind {
				t.Errorf("%s: Kind = %v, want %v", tc.name, tc.err.Kind, tc.kind)
			}
		})
	}
}
