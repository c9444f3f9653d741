package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jtp184/eluent/internal/ledger"
	"github.com/jtp184/eluent/internal/ledgererr"
)

var (
	claimAgentID string
	claimOffline bool
	claimForce   bool
)

var claimCmd = &cobra.Command{
	Use:   "claim <atom_id>",
	Short: "Claim an atom via the compare-and-set ledger protocol",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaim,
}

func init() {
	claimCmd.Flags().StringVar(&claimAgentID, "agent-id", "", "Agent identifier (default: hostname plus a per-process suffix)")
	claimCmd.Flags().BoolVar(&claimOffline, "offline", false, "Force offline-mode claim without probing the remote")
	claimCmd.Flags().BoolVar(&claimForce, "force", false, "Reserved for future forced takeover; currently a no-op beyond normal retry")
}

func runClaim(cmd *cobra.Command, args []string) error {
	out := newOutput()
	ctx := cmd.Context()

	atomID := args[0]
	agentID := claimAgentID
	if agentID == "" {
		agentID = ledger.DefaultAgentID()
	}

	path, err := repoPath(nil)
	if err != nil {
		return err
	}

	syncer, cfg, err := buildSyncer(path)
	if err != nil {
		return err
	}
	if cfg.LedgerBranch == nil {
		out.Error("ledger sync is not configured: set sync.ledger_branch in .eluent/config.yml")
		os.Exit(3)
	}

	var result ledger.ClaimResult
	if claimOffline {
		result = syncer.ClaimOffline(atomID, agentID)
	} else {
		result = syncer.ClaimAndPush(ctx, atomID, agentID)
	}
	if result.Success {
		if result.OfflineClaim {
			out.Warningf("claimed %s as %s (offline, queued for reconciliation)", atomID, agentID)
		} else {
			out.Successf("claimed %s as %s", atomID, agentID)
		}
		return nil
	}

	out.Error(result.Error)
	switch result.Kind {
	case ledgererr.KindClaimConflict:
		if result.ClaimedBy != "" {
			fmt.Fprintf(os.Stderr, "currently claimed by: %s\n", result.ClaimedBy)
		}
		os.Exit(1)
	case ledgererr.KindMaxRetriesExceeded:
		fmt.Fprintf(os.Stderr, "retried %d time(s); contention is high on this atom\n", result.Retries)
		os.Exit(2)
	case ledgererr.KindLedgerNotConfigured:
		os.Exit(3)
	case ledgererr.KindAtomNotFound:
		os.Exit(4)
	case ledgererr.KindAtomTerminal:
		os.Exit(5)
	default:
		os.Exit(1)
	}
	return nil
}
