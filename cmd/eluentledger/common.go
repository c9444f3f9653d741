package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jtp184/eluent/internal/config"
	"github.com/jtp184/eluent/internal/ledger"
	"github.com/jtp184/eluent/internal/ui"
)

func newOutput() *ui.Output {
	out := ui.NewOutput(os.Stdout)
	if format != "" {
		out.SetFormat(ui.OutputFormat(format))
	}
	if noColor {
		out.SetColorEnabled(false)
	}
	return out
}

// repoPath resolves the primary repository path: args[0] if given, else
// the current directory.
func repoPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving repository path: %w", err)
	}
	return abs, nil
}

// buildSyncer loads .eluent/config.yml from primaryRepoPath and
// constructs a ledger.Syncer for it.
func buildSyncer(primaryRepoPath string) (*ledger.Syncer, config.Sync, error) {
	cfg, err := config.Load(primaryRepoPath)
	if err != nil {
		return nil, cfg, err
	}

	override := ""
	if cfg.GlobalPathOverride != nil {
		override = *cfg.GlobalPathOverride
	}

	repoName := filepath.Base(primaryRepoPath)
	syncer, err := ledger.New(primaryRepoPath, repoName, override, cfg.ToSyncerConfig())
	if err != nil {
		return nil, cfg, err
	}
	return syncer, cfg, nil
}
