package gitgateway

import "time"

// Default remote and branch names. DefaultRemote is the remote
// ledger.DefaultConfig uses; DefaultLedgerBranch is not applied by
// DefaultConfig or any other code path, so the ledger branch has to be
// configured explicitly.
const (
	DefaultRemote       = "origin"
	DefaultLedgerBranch = "eluent-ledger"
)

// Timeouts for network-bound git operations. DefaultNetworkTimeout
// matches the spec's default sync.network_timeout of 30s.
// QuickOperationTimeout and BranchOperationTimeout are not applied by any
// gateway call; local-only plumbing calls run without a deadline.
const (
	DefaultNetworkTimeout  = 30 * time.Second
	QuickOperationTimeout  = 5 * time.Second
	BranchOperationTimeout = 2 * time.Second
)
