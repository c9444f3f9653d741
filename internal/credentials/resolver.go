// Package credentials resolves push/fetch credentials for the ledger
// remote. It prefers a Vault-managed SSH key or PAT, scoped per
// repository, and falls back to whatever ambient git credential helper
// is already configured on the host when Vault is unreachable or has no
// secret for this repository — the claim loop must keep working even
// without Vault available.
package credentials

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Kind names how a Credential authenticates git against the remote.
type Kind string

const (
	KindSSHKey  Kind = "ssh_key"
	KindPAT     Kind = "pat"
	KindAmbient Kind = "ambient"
)

// Credential is the resolved push/fetch credential for one repository.
type Credential struct {
	Kind       Kind
	SSHKeyPath string
	Token      string
}

// Env returns the environment variable overrides (in "KEY=VALUE" form)
// that gitgateway should add to a subprocess's environment so git
// authenticates using this credential. Ambient credentials need none —
// git's own configured credential helper takes over.
func (c Credential) Env() []string {
	switch c.Kind {
	case KindSSHKey:
		return []string{fmt.Sprintf("GIT_SSH_COMMAND=ssh -i %s -o IdentitiesOnly=yes -o StrictHostKeyChecking=accept-new", c.SSHKeyPath)}
	case KindPAT:
		// Inject an HTTP Authorization header via the GIT_CONFIG_COUNT/KEY/VALUE
		// env-only config mechanism (git >= 2.31), the same approach
		// actions/checkout uses to hand a token to git without writing it into
		// .git/config: no on-disk credential, scoped to this one subprocess.
		basic := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + c.Token))
		return []string{
			"GIT_CONFIG_COUNT=1",
			"GIT_CONFIG_KEY_0=http.extraheader",
			"GIT_CONFIG_VALUE_0=AUTHORIZATION: basic " + basic,
		}
	default:
		return nil
	}
}

// Resolver resolves a Credential for a named repository.
type Resolver struct {
	vault  *vaultClient
	sshDir string
}

// NewResolver builds a Resolver. Vault client construction failure is
// not fatal: Resolve simply falls back to ambient credentials for every
// call, since a Vault-less environment is a supported configuration.
func NewResolver(sshDir string) *Resolver {
	v, _ := newVaultClient()
	return &Resolver{vault: v, sshDir: sshDir}
}

// Resolve returns the best available credential for repoName: an SSH
// key (repo-specific Vault path, then the shared default path), then a
// PAT (same order), then ambient.
func (r *Resolver) Resolve(ctx context.Context, repoName string) (Credential, error) {
	if r.vault == nil || !r.vault.reachable(ctx) {
		return Credential{Kind: KindAmbient}, nil
	}

	privateKey, _, err := r.vault.sshKey(ctx, repoName)
	if err == nil {
		path, werr := r.writeSSHKey(repoName, privateKey)
		if werr == nil {
			return Credential{Kind: KindSSHKey, SSHKeyPath: path}, nil
		}
	}

	token, err := r.vault.pat(ctx, repoName)
	if err == nil {
		return Credential{Kind: KindPAT, Token: token}, nil
	}

	return Credential{Kind: KindAmbient}, nil
}

func (r *Resolver) writeSSHKey(repoName, privateKey string) (string, error) {
	if err := os.MkdirAll(r.sshDir, 0o700); err != nil {
		return "", fmt.Errorf("creating ssh key directory: %w", err)
	}
	name := "ledger_default"
	if repoName != "" {
		name = "ledger_" + repoName
	}
	path := filepath.Join(r.sshDir, name)
	if err := os.WriteFile(path, []byte(privateKey), 0o600); err != nil {
		return "", fmt.Errorf("writing ssh key: %w", err)
	}
	return path, nil
}
