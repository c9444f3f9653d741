package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jtp184/eluent/internal/ledger"
	"github.com/jtp184/eluent/internal/ui"
)

var (
	syncSetupLedger bool
	syncLedgerOnly  bool
	syncReconcile   bool
	syncStatus      bool
	syncForceResync bool
	syncCleanup     bool
	syncYes         bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Manage the ledger sync lifecycle for a repository",
	Long: `sync drives the ledger coordination core's lifecycle operations:
setting up the ledger branch and worktree, pulling/pushing the ledger,
reconciling claims made while offline, reporting ledger health, and
tearing the ledger back down.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncSetupLedger, "setup-ledger", false, "Create the ledger branch and worktree if missing")
	syncCmd.Flags().BoolVar(&syncLedgerOnly, "ledger-only", false, "Pull then push the ledger, then sync its data into the primary tree")
	syncCmd.Flags().BoolVar(&syncReconcile, "reconcile", false, "Replay offline claims against the remote")
	syncCmd.Flags().BoolVar(&syncStatus, "status", false, "Print whether the ledger is healthy (LedgerState fields are not printed)")
	syncCmd.Flags().BoolVar(&syncForceResync, "force-resync", false, "Tear down, reset state, and rebuild the ledger worktree from scratch")
	syncCmd.Flags().BoolVar(&syncCleanup, "cleanup-ledger", false, "Remove the ledger worktree and local sync state")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Skip the confirmation prompt for destructive actions")
}

func runSync(cmd *cobra.Command, args []string) error {
	out := newOutput()
	ctx := cmd.Context()

	path, err := repoPath(args)
	if err != nil {
		return err
	}

	syncer, cfg, err := buildSyncer(path)
	if err != nil {
		return err
	}
	if cfg.LedgerBranch == nil && !syncSetupLedger {
		out.Error("ledger sync is not configured: set sync.ledger_branch in .eluent/config.yml")
		os.Exit(3)
	}

	switch {
	case syncSetupLedger:
		return runSyncSetup(out, syncer)
	case syncLedgerOnly:
		return runSyncLedgerOnly(ctx, out, syncer, path)
	case syncReconcile:
		return runSyncReconcile(ctx, out, syncer)
	case syncStatus:
		return runSyncStatus(out, syncer)
	case syncForceResync:
		return runSyncForceResync(ctx, out, syncer)
	case syncCleanup:
		return runSyncCleanup(out, syncer)
	default:
		return fmt.Errorf("sync requires one of --setup-ledger, --ledger-only, --reconcile, --status, --force-resync, --cleanup-ledger")
	}
}

func runSyncSetup(out *ui.Output, syncer *ledger.Syncer) error {
	result := syncer.Setup()
	if !result.Success {
		out.Error(result.Error)
		os.Exit(1)
	}
	if result.ProtectionWarning != "" {
		out.Warning(result.ProtectionWarning)
	}
	out.Successf("ledger ready (branch created: %v, worktree created: %v)", result.CreatedBranch, result.CreatedWorktree)
	return nil
}

func runSyncLedgerOnly(ctx context.Context, out *ui.Output, syncer *ledger.Syncer, primaryRepoPath string) error {
	if err := syncer.PullLedger(ctx); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	if err := syncer.PushLedger(ctx, "ledger sync"); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	result := syncer.SyncToMain(primaryRepoPath)
	if !result.Success {
		out.Error(result.Error)
		os.Exit(1)
	}
	out.Successf("ledger synced, %d file(s) applied to primary tree", result.ChangesApplied)
	return nil
}

func runSyncReconcile(ctx context.Context, out *ui.Output, syncer *ledger.Syncer) error {
	reports, err := syncer.ReconcileOfflineClaims(ctx)
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	if quiet {
		return nil
	}
	if len(reports) == 0 {
		out.Info("no offline claims to reconcile")
		return nil
	}
	for _, r := range reports {
		line := fmt.Sprintf("%s: %s", r.AtomID, r.Outcome)
		if r.Detail != "" {
			line += " (" + r.Detail + ")"
		}
		out.Info(line)
	}
	return nil
}

func runSyncStatus(out *ui.Output, syncer *ledger.Syncer) error {
	healthy, err := syncer.Healthy()
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	if healthy {
		out.Success("ledger is healthy")
		return nil
	}
	out.Warning("ledger is not healthy — run 'sync --setup-ledger' or 'sync --force-resync'")
	os.Exit(1)
	return nil
}

func runSyncForceResync(ctx context.Context, out *ui.Output, syncer *ledger.Syncer) error {
	if !syncYes {
		return fmt.Errorf("--force-resync requires --yes to confirm (it rebuilds the ledger worktree from scratch)")
	}
	if err := syncer.Teardown(); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	result := syncer.Setup()
	if !result.Success {
		out.Error(result.Error)
		os.Exit(1)
	}
	if err := syncer.PullLedger(ctx); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	out.Success("ledger rebuilt and pulled")
	return nil
}

func runSyncCleanup(out *ui.Output, syncer *ledger.Syncer) error {
	if !syncYes {
		return fmt.Errorf("--cleanup-ledger requires --yes to confirm (it removes the ledger worktree and local state)")
	}
	if err := syncer.Teardown(); err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	out.Success("ledger torn down")
	return nil
}
