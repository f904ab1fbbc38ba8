// Package workspace provides workspace-level utilities: run locking and
// mapping of patch paths onto the workspace tree.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
)

const lockFileName = ".kvit-patch.lock"

// ErrLocked is returned when another run holds the workspace lock.
var ErrLocked = errors.New("workspace is locked by another kvit-patch run")

// Lock represents an acquired workspace lock.
type Lock struct {
	file     *os.File
	lockPath string
	once     sync.Once
	err      error
}

// AcquireLock takes an exclusive, non-blocking flock on the workspace so
// that two patch runs never write the same targets at once.
// The returned Lock must be released with Release.
func AcquireLock(workspaceRoot string) (*Lock, error) {
	lockPath := filepath.Join(workspaceRoot, lockFileName)

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace lock file: %w", err)
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("%w: %s", ErrLocked, workspaceRoot)
	}

	// PID is informational only
	_ = lockFile.Truncate(0)
	_, _ = lockFile.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)

	return &Lock{file: lockFile, lockPath: lockPath}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.lockPath
}

// Release unlocks and removes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	l.once.Do(func() {
		_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		if err := l.file.Close(); err != nil {
			l.err = err
		}
		if err := os.Remove(l.lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.err = err
		}
	})
	return l.err
}
