// Package eval holds the heuristic weighting used to rank boards and the
// Score type search results are expressed in.
package eval

import "fmt"

// Score is a heuristic board evaluation. Higher favors the player. It carries
// no fixed unit: the weights below are tuning constants, not a reproduction
// of any particular reference implementation's numbers (spec Non-goal).
type Score float64

func (s Score) String() string {
	return fmt.Sprintf("%.1f", float64(s))
}

// Heuristic weights for board.Tables.heur. Signs are fixed by contract:
// empty cells and strict monotonicity are rewarded, the raw tile sum is
// penalized, so that the heuristic favors open, ordered boards over
// cluttered ones. Relative magnitudes are chosen so empties dominate early
// (when board.CountEmpty is large) and monotonicity dominates the endgame
// (when few cells remain empty).
const (
	// HeurEmptyWeight rewards each empty cell in a row.
	HeurEmptyWeight Score = 270
	// HeurMonoWeight penalizes adjacent-rank differences (non-monotone rows).
	HeurMonoWeight Score = 47
	// HeurMergeWeight rewards each adjacent pair of equal tiles in a row (a
	// merge still available).
	HeurMergeWeight Score = 700
	// HeurSumWeight penalizes the raw sum of tile values in a row.
	HeurSumWeight Score = 11
)

// CacheProbabilityThreshold is the cumulative-probability floor below which
// a tile-choose node is truncated to its heuristic value instead of
// recursing further (spec CPROB_THRESHOLD).
const CacheProbabilityThreshold = 1e-4

// CacheDepthLimit is the search depth below which the transposition cache is
// consulted and populated (spec CACHE_DEPTH_LIMIT).
const CacheDepthLimit = 15
