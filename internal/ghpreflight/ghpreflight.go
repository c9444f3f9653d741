// Package ghpreflight checks, before setup! creates the ledger branch,
// whether GitHub branch-protection rules would silently block the CAS
// push loop — required reviews or required status checks both prevent
// a plain push from ever landing, which would make every claim look
// like a ClaimConflict instead of the configuration problem it is.
package ghpreflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"
)

// Warning describes a branch-protection rule that would interfere with
// the ledger's compare-and-set push loop.
type Warning struct {
	Branch              string
	RequireReviews      bool
	RequireStatusChecks bool
	EnforceAdmins       bool
	Detail              string
}

// Check queries GitHub for branch protection on branch within the
// repository named by remoteURL, using GITHUB_TOKEN (or GH_TOKEN) from
// the environment. It returns (nil, nil) when the remote isn't GitHub,
// no token is configured, or the branch has no protection rules — all
// of these are "nothing to warn about", not errors, since this is a
// best-effort advisory check and must never block setup on its own.
func Check(ctx context.Context, remoteURL, branch string) (*Warning, error) {
	owner, repo, ok := parseGitHubURL(remoteURL)
	if !ok {
		return nil, nil
	}

	token := githubToken()
	if token == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	protection, resp, err := client.Repositories.GetBranchProtection(ctx, owner, repo, branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("checking branch protection for %s/%s@%s: %w", owner, repo, branch, err)
	}

	w := &Warning{
		Branch:              branch,
		RequireReviews:      protection.GetRequiredPullRequestReviews() != nil,
		RequireStatusChecks: protection.GetRequiredStatusChecks() != nil,
		EnforceAdmins:       protection.GetEnforceAdmins().Enabled,
	}
	if !w.RequireReviews && !w.RequireStatusChecks {
		return nil, nil
	}

	var parts []string
	if w.RequireReviews {
		parts = append(parts, "required pull request reviews")
	}
	if w.RequireStatusChecks {
		parts = append(parts, "required status checks")
	}
	w.Detail = fmt.Sprintf("branch %q has %s enabled, which will reject the ledger's direct pushes", branch, strings.Join(parts, " and "))
	return w, nil
}

func githubToken() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// parseGitHubURL extracts owner/repo from SSH or HTTPS GitHub remote URLs.
func parseGitHubURL(remoteURL string) (owner, repo string, ok bool) {
	if strings.HasPrefix(remoteURL, "git@github.com:") {
		rest := strings.TrimSuffix(strings.TrimPrefix(remoteURL, "git@github.com:"), ".git")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 {
			return "", "", false
		}
		return parts[0], parts[1], true
	}

	u, err := url.Parse(remoteURL)
	if err != nil || u.Host != "github.com" {
		return "", "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
