package search

import "github.com/herohde/run2048/pkg/eval"

// cacheEntry is a memoized tile-choose node result. depth is depthRemaining
// at the point the entry was stored, which counts down toward 0 as the
// search gets deeper — the opposite sense of the spec's curdepth, which
// counts up from the root. A lookup at depthRemaining=depth is valid only
// if the stored entry was computed with at least as much depth still to
// search (e.depth >= depth): reusing an entry computed with less remaining
// depth than the current query needs would silently substitute a
// shallower, less-searched value.
type cacheEntry struct {
	depth int
	score eval.Score
}

// cache is a per-invocation transposition cache: one is created fresh for
// every root-level FindBestMove direction task, never shared across tasks
// or calls (spec: "four parallel root tasks, each with an independent
// cache"). Not safe for concurrent use.
type cache map[boardKey]cacheEntry

// boardKey is the cache key: a tile-choose node is keyed by board state
// alone, since the move node above it has no additional hidden state.
type boardKey uint64

func newCache() cache {
	return make(cache, 4096)
}

func (c cache) lookup(key boardKey, depth int) (eval.Score, bool) {
	e, ok := c[key]
	if !ok || e.depth < depth {
		return 0, false
	}
	return e.score, true
}

func (c cache) store(key boardKey, depth int, score eval.Score) {
	c[key] = cacheEntry{depth: depth, score: score}
}
