package store

import "errors"

// ErrAlreadyRunning is returned by AcquireLock when another process already
// holds the lock, enforcing single-instance-per-file-pair operation.
var ErrAlreadyRunning = errors.New("store: another instance already holds this lock")
