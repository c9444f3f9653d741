// Package ledgerlock provides advisory cross-process file locking. The
// ledger state store holds the lock while it writes the state file, so
// concurrent processes on the same host serialize those writes; claim,
// pull, and push operations on the shared ledger worktree are not run
// under the lock.
package ledgerlock

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/jtp184/eluent/internal/ledgererr"
)

// FileLock is an exclusive advisory lock backed by flock(2). It is not
// safe for concurrent use from multiple goroutines in the same process;
// callers serialize within a process before ever touching the lock.
type FileLock struct {
	path string
	file *os.File
}

// New creates a FileLock at path. The lock is not acquired until
// Acquire is called.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Acquire blocks until the exclusive lock is obtained.
func (l *FileLock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "opening ledger lock file", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return ledgererr.Wrap(ledgererr.KindInternal, "acquiring ledger lock", err)
	}

	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	_, _ = f.WriteString(content)

	l.file = f
	return nil
}

// Release releases the lock. Safe to call more than once or on a lock
// that was never acquired.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return ledgererr.Wrap(ledgererr.KindInternal, "releasing ledger lock", err)
	}
	return nil
}

// WithLock acquires l, runs fn, and releases l regardless of fn's
// outcome, propagating fn's error.
func WithLock(l *FileLock, fn func() error) error {
	if err := l.Acquire(); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
