package store

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Snapshot is the periodically rewritten file holding every worker's
// current game state, so a daemon restart can resume in-progress games
// instead of starting over (spec: "write_snapshot" / "read_snapshot").
// Safe for concurrent use.
type Snapshot struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenSnapshot opens path for reading and rewriting, creating it if absent.
func OpenSnapshot(path string) (*Snapshot, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open snapshot %v: %w", path, err)
	}
	return &Snapshot{f: f, path: path}, nil
}

// WriteAll truncates the snapshot file and rewrites it with one line per
// record, in order (spec: "ftruncate to 0 before rewrite").
func (s *Snapshot) WriteAll(records []WorkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("store: truncate snapshot: %w", err)
	}
	if _, err := s.f.Seek(0, 0); err != nil {
		return fmt.Errorf("store: seek snapshot: %w", err)
	}

	w := bufio.NewWriter(s.f)
	for _, r := range records {
		if _, err := w.WriteString(r.line()); err != nil {
			return fmt.Errorf("store: write snapshot: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("store: flush snapshot: %w", err)
	}
	return s.f.Sync()
}

// ReadAll parses every line currently in the snapshot file. A malformed
// line is skipped rather than treated as fatal: a partially-written
// snapshot from a crash mid-rewrite should not prevent the daemon from
// starting, just cost that one worker its resume state (spec: "non-fatal,
// default state retained").
func (s *Snapshot) ReadAll() ([]WorkerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("store: seek snapshot: %w", err)
	}

	var records []WorkerRecord
	scanner := bufio.NewScanner(s.f)
	for i := 0; scanner.Scan(); i++ {
		r, err := parseRecordLine(i, scanner.Text())
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("store: read snapshot: %w", err)
	}
	return records, nil
}

// Close closes the underlying file.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
