package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock is an advisory, non-blocking exclusive file lock held for the
// lifetime of the daemon, enforcing the single-instance-per-file-pair
// invariant (spec: "flock(LOCK_EX|LOCK_NB)").
type Lock struct {
	f *os.File
}

// AcquireLock opens path (creating it if absent) and takes an exclusive,
// non-blocking flock on it. Returns ErrAlreadyRunning if another process
// already holds the lock.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open lock file %v: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, path)
	}
	return &Lock{f: f}, nil
}

// TestRunning reports whether path is currently locked by another process,
// without blocking and without taking the lock itself (spec:
// "test_running" — used by run2048d -s to wait for the daemon to exit).
func TestRunning(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("store: open lock file %v: %w", path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return true, nil // held elsewhere
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false, nil
}

// Release unlocks and closes the underlying file.
func (l *Lock) Release() error {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
