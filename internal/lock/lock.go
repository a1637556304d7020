// Package lock serializes runs with a file lock so two invocations
// cannot import the same emails concurrently.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning means another process holds the run lock.
var ErrAlreadyRunning = errors.New("another import is already running")

// Lock is a held file lock. Release it with Release; it is also
// released by the OS if the process dies.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the run lock under dataDir without blocking. It
// returns ErrAlreadyRunning if another process holds it.
func Acquire(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	fl := flock.New(filepath.Join(dataDir, "fm2ynab.lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call once on every exit path.
func (l *Lock) Release() {
	if l != nil && l.fl != nil {
		_ = l.fl.Unlock()
	}
}
