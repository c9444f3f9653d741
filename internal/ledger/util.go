package ledger

import (
	"context"
	"os"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// bgCtx is used by call sites that do not yet thread a caller context
// through (setup's one-time branch push); every hot-path operation
// (pull, push, claim) takes an explicit context instead.
func bgCtx() context.Context {
	return context.Background()
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return ledgererr.Wrap(ledgererr.KindInternal, "removing "+path, err)
	}
	return nil
}
