// Package search implements the expectimax move search: a move node
// maximizes over the four slide directions, a tile-choose node takes the
// probability-weighted expectation over every empty cell and the two tile
// ranks the game can spawn there.
package search

import (
	"context"
	"errors"

	"github.com/herohde/run2048/pkg/board"
	"github.com/herohde/run2048/pkg/eval"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"golang.org/x/sync/errgroup"
)

// ErrNoLegalMove is returned by FindBestMove when no direction changes the
// board (the game is over).
var ErrNoLegalMove = errors.New("search: no legal move")

// ErrHalted is returned by FindBestMove when ctx is cancelled mid-search.
var ErrHalted = errors.New("search: halted")

// Engine runs expectimax search against a shared, immutable set of move
// tables. An Engine has no mutable state of its own and is safe to share
// across goroutines and workers.
type Engine struct {
	tables *board.Tables
}

// New returns an Engine bound to the given tables.
func New(tables *board.Tables) *Engine {
	return &Engine{tables: tables}
}

// FindBestMove returns the direction that maximizes the expected heuristic
// score, searching each of the four directions in its own goroutine with an
// independent transposition cache (spec §4.3, "find_best_move"). Returns
// ErrNoLegalMove if b has no legal move.
func (e *Engine) FindBestMove(ctx context.Context, b board.Board) (board.Direction, error) {
	if !board.HasMove(e.tables, b) {
		return 0, ErrNoLegalMove
	}

	depthLimit := topLevelDepthLimit(b)

	results := make([]eval.Score, board.NumDirections)
	legal := make([]bool, board.NumDirections)
	g, ctx := errgroup.WithContext(ctx)
	for d := board.Direction(0); d < board.NumDirections; d++ {
		d := d
		g.Go(func() error {
			moved := board.ExecuteMove(e.tables, d, b)
			if moved == b {
				return nil // illegal: board unchanged, results[d]/legal[d] stay zero/false
			}

			s := newSearchState(e.tables)
			results[d] = s.scoreTileChooseNode(ctx, moved, 1, depthLimit)
			legal[d] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if contextx.IsCancelled(ctx) {
		return 0, ErrHalted
	}

	best := board.Direction(0)
	var bestScore eval.Score
	found := false
	for d := board.Direction(0); d < board.NumDirections; d++ {
		if !legal[d] {
			continue
		}
		if !found || results[d] > bestScore {
			best = d
			bestScore = results[d]
		}
		found = true
	}
	if !found {
		// every direction was illegal; HasMove said otherwise, which cannot
		// happen, but fail closed rather than return a bogus move.
		logw.Errorf(ctx, "search: HasMove true but every direction illegal for board %v", b)
		return 0, ErrNoLegalMove
	}
	return best, nil
}

// topLevelDepthLimit sizes the search depth to the board's complexity: more
// distinct tile ranks means a more developed, slower-branching position, so
// the engine can afford to look deeper (spec: "max(3, distinct ranks - 2)").
func topLevelDepthLimit(b board.Board) int {
	if d := board.DistinctNonzeroRanks(b) - 2; d > 3 {
		return d
	}
	return 3
}
