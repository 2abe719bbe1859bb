package search

import (
	"context"

	"github.com/herohde/run2048/pkg/board"
	"github.com/herohde/run2048/pkg/eval"
	"github.com/seekerror/stdlib/pkg/util/contextx"
)

// searchState carries the per-call mutable state of one expectimax
// invocation: its own transposition cache and node counter, never reused
// across direction tasks (see cache's doc comment).
type searchState struct {
	tables *board.Tables
	cache  cache
	nodes  uint64
}

func newSearchState(tables *board.Tables) *searchState {
	return &searchState{tables: tables, cache: newCache()}
}

// scoreMoveNode maximizes over the four directions. cumProb is the
// cumulative probability of reaching this node from the search root;
// depthRemaining counts down to zero. Returns the board's heuristic value
// directly, without recursing further, once cumProb falls below the
// pruning threshold or depthRemaining is exhausted. If no direction
// changes the board, the node's value is 0 (spec: "score_move_node" —
// matches the original's best=0.0f no-update behavior).
func (s *searchState) scoreMoveNode(ctx context.Context, b board.Board, cumProb float64, depthRemaining int) eval.Score {
	if contextx.IsCancelled(ctx) || depthRemaining <= 0 || cumProb < eval.CacheProbabilityThreshold {
		return s.tables.Heuristic(b)
	}

	s.nodes++

	var best eval.Score
	found := false
	for d := board.Direction(0); d < board.NumDirections; d++ {
		moved := board.ExecuteMove(s.tables, d, b)
		if moved == b {
			continue
		}
		if v := s.scoreTileChooseNode(ctx, moved, cumProb, depthRemaining-1); !found || v > best {
			best = v
		}
		found = true
	}
	if !found {
		return 0
	}
	return best
}

// scoreTileChooseNode takes the expectation over every empty cell and the
// two tile ranks the game can spawn there: rank 1 with probability 0.9,
// rank 2 with probability 0.1, each cell equally likely to be chosen
// (spec: "score_tilechoose_node"). Memoized per board state in s.cache,
// gated by eval.CacheDepthLimit the same way the root move-node depth
// limit is, since only states reachable late in a deep search are likely
// to recur by transposition. Returns b's heuristic value directly once
// cumProb falls below the pruning threshold.
func (s *searchState) scoreTileChooseNode(ctx context.Context, b board.Board, cumProb float64, depthRemaining int) eval.Score {
	if cumProb < eval.CacheProbabilityThreshold {
		return s.tables.Heuristic(b)
	}

	empty := board.CountEmpty(b)
	if empty == 0 {
		return s.scoreMoveNode(ctx, b, cumProb, depthRemaining)
	}

	key := boardKey(b)
	useCache := depthRemaining <= eval.CacheDepthLimit
	if useCache {
		if v, ok := s.cache.lookup(key, depthRemaining); ok {
			return v
		}
	}

	perCell := 1.0 / float64(empty)

	var total eval.Score
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if b.At(r, c) != 0 {
				continue
			}

			withRank1 := b.WithCell(r, c, 1)
			total += 0.9 * perCell * s.scoreMoveNode(ctx, withRank1, cumProb*0.9*perCell, depthRemaining)

			withRank2 := b.WithCell(r, c, 2)
			total += 0.1 * perCell * s.scoreMoveNode(ctx, withRank2, cumProb*0.1*perCell, depthRemaining)
		}
	}

	if useCache {
		s.cache.store(key, depthRemaining, total)
	}
	return total
}
