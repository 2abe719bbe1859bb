package store

import (
	"context"
	"os"
	"time"
)

// WaitForSocket polls for path to exist (start=true) or stop existing
// (start=false), up to the context deadline, checking every 50ms (spec:
// "wait_daemon" — used by the daemon's own fork-and-wait startup).
func WaitForSocket(ctx context.Context, path string, start bool) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); (err == nil) == start {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
