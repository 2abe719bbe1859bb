package store

import (
	"fmt"
	"os"
	"sync"
)

// Log is an append-only record of completed games, one line per game
// (spec: "write_log"). Safe for concurrent use.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

// OpenLog opens path for appending, creating it if absent.
func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open log %v: %w", path, err)
	}
	return &Log{f: f}, nil
}

// Append writes one completed-game line and flushes it to disk immediately,
// so a crash never loses an already-finished game (spec: "fprintf + fflush
// under log_mutex").
func (l *Log) Append(workerID, moveNo int, score uint32, maxRank uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%d,%d,%d,%d\n", workerID, moveNo, score, uint32(1)<<maxRank)
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
