// Package pool runs the fixed-size set of independent game-playing workers
// that make up a running daemon: each worker repeatedly asks the search
// engine for the best move, applies it, draws a new tile, and restarts once
// the game ends (spec §5, "Worker Pool").
package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/herohde/run2048/pkg/board"
	"github.com/herohde/run2048/pkg/search"
	"github.com/seekerror/logw"
	"lukechampine.com/frand"
)

// GameState is a snapshot of one worker's game: the move number played so
// far, the score correction owed for freely-spawned rank-2 tiles, and the
// current board (spec: "moveno, score_offset, board").
type GameState struct {
	MoveNo      int
	ScoreOffset uint32
	Board       board.Board
}

// Score returns the true, displayed game score: the score embedded in the
// board by TrueScore, corrected for tiles that were spawned directly
// instead of built by a merge.
func (s GameState) Score(tables *board.Tables) uint32 {
	return tables.TrueScore(s.Board) - s.ScoreOffset
}

// CompletedGame describes one finished game, ready to be appended to the log.
type CompletedGame struct {
	WorkerID int
	MoveNo   int
	Score    uint32
	MaxRank  uint8
}

// Worker owns one independent game: its own board, move counter, score
// offset, and private RNG, guarded by a single RWMutex so concurrent
// readers (the snapshotter, the control server) never block each other
// but never observe a torn state either.
type Worker struct {
	ID     int
	tables *board.Tables
	engine *search.Engine
	rng    *frand.RNG

	mu    sync.RWMutex
	state GameState
}

// NewWorker returns a freshly initialized worker: a new game with two tiles
// drawn onto an otherwise empty board.
func NewWorker(id int, tables *board.Tables, engine *search.Engine) *Worker {
	w := &Worker{
		ID:     id,
		tables: tables,
		engine: engine,
		rng:    frand.New(),
	}
	w.reset()
	return w
}

// Snapshot returns the worker's current game state. Safe for concurrent use.
func (w *Worker) Snapshot() GameState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Restore overwrites the worker's game state, e.g. from a snapshot file
// loaded at startup. Safe for concurrent use.
func (w *Worker) Restore(s GameState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// reset starts a fresh game: an empty board with two tiles drawn onto it
// (spec: "init_game").
func (w *Worker) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = GameState{}
	w.state.Board = w.drawTile(w.state.Board)
	w.state.Board = w.drawTile(w.state.Board)
}

// Step plays one move: search for the best direction, apply it, draw a new
// tile. If the game has no legal move, it is recorded as completed and a
// fresh game is started in its place (spec: "play_game" / "thread_main").
// Returns the completed game, if any.
func (w *Worker) Step(ctx context.Context) (*CompletedGame, error) {
	w.mu.Lock()
	b := w.state.Board
	w.mu.Unlock()

	d, err := w.engine.FindBestMove(ctx, b)
	if errors.Is(err, search.ErrNoLegalMove) {
		return w.finish(), nil
	}
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	moved := board.ExecuteMove(w.tables, d, w.state.Board)
	if moved == w.state.Board {
		// The board changed between the search and the apply (it cannot,
		// since this worker is Step's only writer, but fail loudly rather
		// than silently desync moveno from the board).
		logw.Exitf(ctx, "worker %v: search chose illegal move %v for board %v", w.ID, d, w.state.Board)
	}

	w.state.Board = w.drawTile(moved)
	w.state.MoveNo++
	return nil, nil
}

// finish records the current game as complete and starts a new one.
func (w *Worker) finish() *CompletedGame {
	w.mu.Lock()
	final := w.state
	w.mu.Unlock()

	game := &CompletedGame{
		WorkerID: w.ID,
		MoveNo:   final.MoveNo,
		Score:    final.Score(w.tables),
		MaxRank:  board.MaxTileRank(final.Board),
	}

	w.reset()
	return game
}

// drawTile inserts one new tile into a uniformly random empty cell of b:
// rank 1 with probability 0.9, rank 2 with probability 0.1 (spec:
// "insert_tile_rand"). Must be called with w.mu held. A rank-2 draw bumps
// ScoreOffset by 4, the true-score contribution a merge-built rank-2 tile
// would have had, since this one was spawned for free.
func (w *Worker) drawTile(b board.Board) board.Board {
	empty := board.CountEmpty(b)
	if empty == 0 {
		return b
	}

	target := w.rng.Intn(int(empty))
	rank := uint8(1)
	if w.rng.Intn(10) == 0 {
		rank = 2
		w.state.ScoreOffset += 4
	}

	n := 0
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if b.At(r, c) != 0 {
				continue
			}
			if n == target {
				return b.WithCell(r, c, rank)
			}
			n++
		}
	}
	return b // unreachable: target < empty
}
