package gitgateway

import (
	"errors"
	"strings"
	"unicode"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// ValidateBranchName rejects branch names that would be misinterpreted
// by git or shell tooling: whitespace, a leading '-' (could be parsed as
// a flag), embedded "..", empty path segments, control characters, or
// "@{". Validation runs before any git invocation touches the name.
func ValidateBranchName(name string) error {
	if name == "" {
		return ledgererr.BranchInvalid(name, "branch name is empty")
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return ledgererr.BranchInvalid(name, "contains whitespace")
	}
	if strings.HasPrefix(name, "-") {
		return ledgererr.BranchInvalid(name, "starts with '-'")
	}
	if strings.Contains(name, "..") {
		return ledgererr.BranchInvalid(name, "contains '..'")
	}
	if strings.Contains(name, "@{") {
		return ledgererr.BranchInvalid(name, "contains '@{'")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ledgererr.BranchInvalid(name, "contains a control character")
		}
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			return ledgererr.BranchInvalid(name, "contains an empty path segment")
		}
	}
	return nil
}

// BranchExists checks whether name exists as a local branch (remote ==
// "") or on the given remote.
func (g *Gateway) BranchExists(name string, remote string) (bool, error) {
	if err := ValidateBranchName(name); err != nil {
		return false, err
	}

	if remote == "" {
		_, err := g.run("show-ref", "--verify", "--quiet", "refs/heads/"+name)
		return err == nil, nil
	}

	out, err := g.run("ls-remote", "--heads", remote, name)
	if err != nil {
		return false, ledgererr.NetworkUnreachable("ls-remote", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// CreateOrphanBranch creates name as an orphan branch (no parent history)
// with a single commit carrying initialMessage, then restores whatever
// branch was checked out before the call — on every exit path, including
// error.
func (g *Gateway) CreateOrphanBranch(name, initialMessage string) (err error) {
	if err := ValidateBranchName(name); err != nil {
		return err
	}

	prior, cerr := g.CurrentBranch()
	if cerr != nil {
		return ledgererr.GitFailure("rev-parse --abbrev-ref HEAD", cerr)
	}

	defer func() {
		if prior == "" || prior == "HEAD" {
			return
		}
		if _, rerr := g.run("checkout", prior); rerr != nil && err == nil {
			err = ledgererr.GitFailure("checkout "+prior, rerr)
		}
	}()

	if _, cerr := g.run("checkout", "--orphan", name); cerr != nil {
		return ledgererr.GitFailure("checkout --orphan "+name, cerr)
	}

	if _, cerr := g.run("reset", "--hard"); cerr != nil {
		return ledgererr.GitFailure("reset --hard", cerr)
	}

	if _, cerr := g.run("commit", "--allow-empty", "-m", initialMessage); cerr != nil {
		return ledgererr.GitFailure("commit --allow-empty", cerr)
	}

	return nil
}

// IsAncestor checks whether commit1 is an ancestor of commit2. merge-base
// --is-ancestor exits non-zero for "no" as well as for real failures, so a
// generic git failure here is treated as a negative result rather than an
// error.
func (g *Gateway) IsAncestor(commit1, commit2 string) (bool, error) {
	_, err := g.run("merge-base", "--is-ancestor", commit1, commit2)
	if err == nil {
		return true, nil
	}
	var le *ledgererr.LedgerError
	if errors.As(err, &le) && le.Kind == ledgererr.KindGitFailure {
		return false, nil
	}
	return false, err
}
