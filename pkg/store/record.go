// Package store persists worker game state to disk: an append-only log of
// completed games and a periodically rewritten snapshot of every worker's
// in-progress game, plus the advisory single-instance file lock that
// guards both for the lifetime of the daemon (spec §5, "Persistence").
package store

import (
	"fmt"

	"github.com/herohde/run2048/pkg/board"
)

// WorkerRecord is one worker's persisted game state: exactly what is
// needed to resume the game after a restart (spec: "moveno, score_offset,
// board" — the true score is always recomputed from board and
// ScoreOffset, never stored directly).
type WorkerRecord struct {
	WorkerID    int
	MoveNo      int
	ScoreOffset uint32
	Board       board.Board
}

func (r WorkerRecord) line() string {
	return fmt.Sprintf("%d,%d,%016x\n", r.MoveNo, r.ScoreOffset, uint64(r.Board))
}

func parseRecordLine(workerID int, line string) (WorkerRecord, error) {
	var moveNo int
	var offset uint32
	var boardHex string
	if _, err := fmt.Sscanf(line, "%d,%d,%16s", &moveNo, &offset, &boardHex); err != nil {
		return WorkerRecord{}, fmt.Errorf("store: malformed snapshot line %q: %w", line, err)
	}
	b, err := board.ParseHex(boardHex)
	if err != nil {
		return WorkerRecord{}, err
	}
	return WorkerRecord{WorkerID: workerID, MoveNo: moveNo, ScoreOffset: offset, Board: b}, nil
}
