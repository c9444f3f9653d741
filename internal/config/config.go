// Package config loads the sync.* configuration keys from an optional
// .eluent/config.yml in the primary working tree, the way the teacher's
// internal/state.Manager persists its YAML state file. Defaults apply
// when the file, or any individual key, is absent.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jtp184/eluent/internal/gitgateway"
	"github.com/jtp184/eluent/internal/ledger"
	"github.com/jtp184/eluent/internal/ledgererr"
)

const fileName = "config.yml"

// Sync holds the sync.* configuration keys of spec §6.
type Sync struct {
	LedgerBranch      *string  `yaml:"ledger_branch"`
	AutoClaimPush     bool     `yaml:"auto_claim_push"`
	ClaimRetries      int      `yaml:"claim_retries"`
	ClaimTimeoutHours *float64 `yaml:"claim_timeout_hours"`
	OfflineMode       string   `yaml:"offline_mode"`
	NetworkTimeout    int      `yaml:"network_timeout"`
	GlobalPathOverride *string `yaml:"global_path_override"`
}

type fileFormat struct {
	Sync Sync `yaml:"sync"`
}

// Default returns the spec §6 defaults table.
func Default() Sync {
	return Sync{
		LedgerBranch:       nil,
		AutoClaimPush:      true,
		ClaimRetries:       5,
		ClaimTimeoutHours:  nil,
		OfflineMode:        "local",
		NetworkTimeout:     30,
		GlobalPathOverride: nil,
	}
}

// Path returns the location config.Load reads from: <primaryRepoPath>/.eluent/config.yml.
func Path(primaryRepoPath string) string {
	return filepath.Join(primaryRepoPath, ".eluent", fileName)
}

// Load reads .eluent/config.yml from the primary working tree, falling
// back to Default() for any key the file doesn't set. A missing file is
// not an error.
func Load(primaryRepoPath string) (Sync, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(primaryRepoPath))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, ledgererr.Wrap(ledgererr.KindInternal, "reading config.yml", err)
	}

	ff := fileFormat{Sync: cfg}
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return cfg, ledgererr.Wrap(ledgererr.KindInternal, "parsing config.yml", err)
	}

	if ff.Sync.LedgerBranch != nil {
		if err := gitgateway.ValidateBranchName(*ff.Sync.LedgerBranch); err != nil {
			return cfg, err
		}
	}

	return ff.Sync, nil
}

// ToSyncerConfig converts the loaded sync.* keys into a ledger.Config,
// ready to pass to ledger.New.
func (s Sync) ToSyncerConfig() ledger.Config {
	c := ledger.DefaultConfig()
	if s.LedgerBranch != nil {
		c.LedgerBranch = *s.LedgerBranch
	}
	c.AutoClaimPush = s.AutoClaimPush
	c.ClaimRetries = s.ClaimRetries
	if s.ClaimTimeoutHours != nil {
		c.ClaimTimeoutHours = *s.ClaimTimeoutHours
	}
	switch s.OfflineMode {
	case "fail":
		c.OfflineMode = ledger.OfflinePolicyFail
	default:
		c.OfflineMode = ledger.OfflinePolicyLocal
	}
	c.NetworkTimeout = s.NetworkTimeout
	return c
}
