package credentials

import (
	"context"
	"fmt"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// vaultClient is a thin wrapper around the Vault KV v2 API, scoped to the
// two secret shapes the ledger coordination core needs: a push/fetch SSH
// key, and a fallback PAT. Configuration is entirely environment-driven
// (VAULT_ADDR, VAULT_TOKEN), matching how the Vault Go client is meant to
// be used.
type vaultClient struct {
	api *vaultapi.Client
}

func newVaultClient() (*vaultClient, error) {
	cfg := vaultapi.DefaultConfig()
	if cfg == nil {
		return nil, fmt.Errorf("failed to build default vault config")
	}
	api, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	return &vaultClient{api: api}, nil
}

// reachable performs a bounded health check; callers treat any failure as
// "fall back to ambient credentials" rather than a hard error.
func (v *vaultClient) reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := v.api.Sys().HealthWithContext(ctx)
	return err == nil
}

func (v *vaultClient) secret(ctx context.Context, path string) (map[string]interface{}, error) {
	secret, err := v.api.KVv2("secret").Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data at %s", path)
	}
	return secret.Data, nil
}

// sshKey retrieves an SSH private (and optional public) key, trying a
// repo-specific path before the shared default.
func (v *vaultClient) sshKey(ctx context.Context, repoName string) (privateKey, publicKey string, err error) {
	if repoName != "" {
		data, derr := v.secret(ctx, fmt.Sprintf("eluent/ledger/%s/ssh", repoName))
		if derr == nil {
			return parseSSHKey(data)
		}
	}
	data, err := v.secret(ctx, "eluent/ledger/default_ssh")
	if err != nil {
		return "", "", fmt.Errorf("no SSH key found (tried repo-specific and default): %w", err)
	}
	return parseSSHKey(data)
}

func parseSSHKey(data map[string]interface{}) (privateKey, publicKey string, err error) {
	pk, ok := data["private_key"].(string)
	if !ok {
		return "", "", fmt.Errorf("SSH secret missing 'private_key' field")
	}
	if pub, ok := data["public_key"].(string); ok {
		publicKey = pub
	}
	return pk, publicKey, nil
}

// pat retrieves a fallback personal access token, trying a repo-specific
// path before the shared default.
func (v *vaultClient) pat(ctx context.Context, repoName string) (string, error) {
	if repoName != "" {
		data, err := v.secret(ctx, fmt.Sprintf("eluent/ledger/%s/pat", repoName))
		if err == nil {
			if token, ok := data["token"].(string); ok {
				return token, nil
			}
		}
	}
	data, err := v.secret(ctx, "eluent/ledger/default_pat")
	if err != nil {
		return "", fmt.Errorf("no PAT found (tried repo-specific and default): %w", err)
	}
	token, ok := data["token"].(string)
	if !ok {
		return "", fmt.Errorf("PAT secret missing 'token' field")
	}
	return token, nil
}
