// Package ledger implements the Ledger Coordination Core: the
// compare-and-set claim protocol, durable sync state, and self-healing
// worktree recovery that let many concurrent agents claim atoms without
// a central server, using a dedicated git branch as the distributed log.
package ledger

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jtp184/eluent/internal/credentials"
	"github.com/jtp184/eluent/internal/eluentpaths"
	"github.com/jtp184/eluent/internal/faketime"
	"github.com/jtp184/eluent/internal/gitgateway"
	"github.com/jtp184/eluent/internal/ledgererr"
	"github.com/jtp184/eluent/internal/ledgerstate"
	"github.com/jtp184/eluent/internal/netguard"
)

// processAgentSuffix is generated once per process so that DefaultAgentID
// disambiguates concurrent agent processes sharing a hostname; without it
// two agents on the same host would collide on the same agent_id and
// silently share each other's claims.
var processAgentSuffix = uuid.NewString()[:8]

// OfflinePolicy names how claim_and_push behaves when the remote is
// unreachable.
type OfflinePolicy string

const (
	OfflinePolicyFail  OfflinePolicy = "fail"
	OfflinePolicyLocal OfflinePolicy = "local"
)

// Config carries the configuration keys from spec §6 that shape a
// Syncer's behavior.
type Config struct {
	Remote            string
	LedgerBranch      string
	AutoClaimPush     bool
	ClaimRetries      int
	ClaimTimeoutHours float64 // 0 disables stale-claim auto-release
	OfflineMode       OfflinePolicy
	NetworkTimeout    int // seconds
}

// DefaultConfig returns the spec §6 defaults, except LedgerBranch which
// has no default: it is configuration-only (see DESIGN.md Open Question
// 1) and must be supplied explicitly to enable the feature.
func DefaultConfig() Config {
	return Config{
		Remote:         gitgateway.DefaultRemote,
		AutoClaimPush:  true,
		ClaimRetries:   5,
		OfflineMode:    OfflinePolicyLocal,
		NetworkTimeout: 30,
	}
}

// Syncer is the protocol engine for one repository: it composes the
// GitGateway, LedgerState store, and filesystem paths, and exposes the
// setup/pull/push/claim/release operations of spec §4.4. A Syncer is not
// required to be reentrant; callers serialize operations against the
// same repository within a process.
type Syncer struct {
	primary *gitgateway.Gateway
	paths   *eluentpaths.Paths
	state   *ledgerstate.Store
	limiter *netguard.Limiter
	cfg     Config
	clock   faketime.Clock
}

// New creates a Syncer for the repository rooted at repoPath, with
// per-user paths resolved from repoName/override.
func New(repoPath, repoName, pathOverride string, cfg Config) (*Syncer, error) {
	paths, err := eluentpaths.New(repoName, pathOverride)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	limiter := netguard.Default()
	primary := gitgateway.New(repoPath, limiter)

	resolver := credentials.NewResolver(filepath.Join(paths.Root, "ssh"))
	if cred, err := resolver.Resolve(context.Background(), repoName); err == nil {
		if env := cred.Env(); len(env) > 0 {
			primary = primary.WithEnv(env)
		}
	}

	return &Syncer{
		primary: primary,
		paths:   paths,
		state:   ledgerstate.NewStore(paths.StateFile, paths.LockFile),
		limiter: limiter,
		cfg:     cfg,
		clock:   faketime.System{},
	}, nil
}

// WithClock overrides the Syncer's ambient clock, for deterministic
// tests of backoff and stale-claim timing.
func (s *Syncer) WithClock(c faketime.Clock) *Syncer {
	s.clock = c
	return s
}

// worktreeGateway returns a Gateway rooted at the ledger worktree.
func (s *Syncer) worktreeGateway() *gitgateway.Gateway {
	return s.primary.AtPath(s.paths.Worktree)
}

// Available reports whether the worktree is registered at the expected
// path and the ledger branch exists locally or on the remote.
func (s *Syncer) Available() (bool, error) {
	if s.cfg.LedgerBranch == "" {
		return false, ledgererr.LedgerNotConfigured()
	}

	list, err := s.primary.WorktreeList()
	if err != nil {
		return false, err
	}
	registered := false
	for _, wt := range list {
		if wt.Path == s.paths.Worktree {
			registered = true
			break
		}
	}
	if !registered {
		return false, nil
	}

	local, err := s.primary.BranchExists(s.cfg.LedgerBranch, "")
	if err != nil {
		return false, err
	}
	if local {
		return true, nil
	}

	remote, err := s.primary.BranchExists(s.cfg.LedgerBranch, s.cfg.Remote)
	if err != nil {
		return false, err
	}
	return remote, nil
}

// Online performs a non-mutating probe of the remote within the
// configured network timeout.
func (s *Syncer) Online(ctx context.Context) bool {
	if s.cfg.LedgerBranch == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.networkTimeout())
	defer cancel()
	_, err := s.primary.RemoteBranchCommit(ctx, s.cfg.Remote, s.cfg.LedgerBranch)
	return err == nil
}

// Healthy reports availability plus a non-stale worktree and an
// uncorrupted LedgerState.
func (s *Syncer) Healthy() (bool, error) {
	available, err := s.Available()
	if err != nil || !available {
		return false, err
	}

	stale, err := s.isStale()
	if err != nil {
		return false, err
	}
	if stale {
		return false, nil
	}

	_, err = s.state.Load()
	return err == nil, err
}

func (s *Syncer) networkTimeoutSeconds() int {
	if s.cfg.NetworkTimeout <= 0 {
		return 30
	}
	return s.cfg.NetworkTimeout
}

func (s *Syncer) networkTimeout() time.Duration {
	return time.Duration(s.networkTimeoutSeconds()) * time.Second
}

// maxRetries clamps the configured retry ceiling into [MinRetries, MaxRetries].
func (s *Syncer) maxRetries() int {
	retries := s.cfg.ClaimRetries
	if retries == 0 {
		retries = DefaultConfig().ClaimRetries
	}
	return ClampRetries(retries)
}

// hostname is the agent identifier default named in spec §3.
func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-host"
	}
	return name
}

// DefaultAgentID returns the default agent identifier for this process:
// the host name plus a short per-process suffix, so that two agent
// processes on the same host never collide on the same claim identity.
func DefaultAgentID() string {
	return hostname() + "-" + processAgentSuffix
}
