package board

import "github.com/herohde/run2048/pkg/eval"

// numRowValues is the number of distinct 16-bit row indices.
const numRowValues = 1 << 16

// Tables holds the six precomputed per-row lookup arrays that make a single
// move cost four table loads and three XORs (spec §3, "Lookup Tables").
// Built once at startup by NewTables and shared by reference across every
// worker and search task thereafter — immutable, so no locking is needed to
// read it (spec §5, "Tables: immutable after init").
type Tables struct {
	rowLeft  [numRowValues]uint16
	rowRight [numRowValues]uint16
	colUp    [numRowValues]Board
	colDown  [numRowValues]Board
	score    [numRowValues]uint32
	heur     [numRowValues]eval.Score
}

// mergeScoreOf[k] is the true game score contributed by building a single
// tile of rank k from scratch via merges: score(0)=score(1)=0,
// score(k) = 2^k + 2*score(k-1) for k>=2, which equals (k-1)*2^k
// (spec §3, "score[r]").
var mergeScoreOf = func() [MaxRank + 1]uint32 {
	var s [MaxRank + 1]uint32
	for k := uint8(2); k <= MaxRank; k++ {
		s[k] = (1 << k) + 2*s[k-1]
	}
	return s
}()

// unpackRow splits a 16-bit row into its four nibble ranks, position 0 first.
func unpackRow(r Row) [4]uint8 {
	return [4]uint8{
		uint8(r>>0) & 0xf,
		uint8(r>>4) & 0xf,
		uint8(r>>8) & 0xf,
		uint8(r>>12) & 0xf,
	}
}

func packRow(ranks [4]uint8) Row {
	return Row(ranks[0]) | Row(ranks[1])<<4 | Row(ranks[2])<<8 | Row(ranks[3])<<12
}

// slideLeftMerge compacts the non-zero ranks to the left, then merges equal
// adjacent pairs left-to-right in a single pass (each cell merges at most
// once per move), matching the game's one-slide-one-merge semantics.
func slideLeftMerge(ranks [4]uint8) [4]uint8 {
	var compact [4]uint8
	n := 0
	for _, k := range ranks {
		if k != 0 {
			compact[n] = k
			n++
		}
	}

	var out [4]uint8
	o := 0
	for i := 0; i < n; i++ {
		if i+1 < n && compact[i] == compact[i+1] && compact[i] < MaxRank {
			out[o] = compact[i] + 1
			o++
			i++
		} else {
			out[o] = compact[i]
			o++
		}
	}
	return out
}

func isMonotoneRow(ranks [4]uint8) bool {
	inc, dec := true, true
	for i := 0; i < 3; i++ {
		if ranks[i] > ranks[i+1] {
			inc = false
		}
		if ranks[i] < ranks[i+1] {
			dec = false
		}
	}
	return inc || dec
}

// rowHeuristic scores one row per spec §4.2: empties and strict
// monotonicity reward, raw tile sum and rank-to-rank disorder penalize,
// outstanding adjacent-equal merges reward (an opportunity the player can
// still cash in).
func rowHeuristic(ranks [4]uint8) eval.Score {
	var empty, merges int
	var sum eval.Score
	for _, k := range ranks {
		if k == 0 {
			empty++
		} else {
			sum += eval.Score(uint32(1) << k)
		}
	}

	var sumAbsDiff int
	for i := 0; i < 3; i++ {
		d := int(ranks[i]) - int(ranks[i+1])
		if d < 0 {
			d = -d
		}
		sumAbsDiff += d
		if ranks[i] != 0 && ranks[i] == ranks[i+1] {
			merges++
		}
	}

	monotonicity := -eval.Score(sumAbsDiff)
	if isMonotoneRow(ranks) {
		monotonicity++
	}

	return eval.HeurEmptyWeight*eval.Score(empty) +
		eval.HeurMonoWeight*monotonicity +
		eval.HeurMergeWeight*eval.Score(merges) -
		eval.HeurSumWeight*sum
}

// rowScore is the true score contributed by the tiles currently in ranks.
func rowScore(ranks [4]uint8) uint32 {
	var s uint32
	for _, k := range ranks {
		s += mergeScoreOf[k]
	}
	return s
}

// NewTables builds the six lookup arrays once, at startup.
func NewTables() *Tables {
	t := &Tables{}
	for i := 0; i < numRowValues; i++ {
		r := Row(i)
		ranks := unpackRow(r)

		left := slideLeftMerge(ranks)
		leftRow := packRow(left)
		t.rowLeft[i] = uint16(r) ^ uint16(leftRow)

		reversed := [4]uint8{ranks[3], ranks[2], ranks[1], ranks[0]}
		rightReversed := slideLeftMerge(reversed)
		right := [4]uint8{rightReversed[3], rightReversed[2], rightReversed[1], rightReversed[0]}
		rightRow := packRow(right)
		t.rowRight[i] = uint16(r) ^ uint16(rightRow)

		t.colUp[i] = unpackCol(Row(t.rowLeft[i]))
		t.colDown[i] = unpackCol(Row(t.rowRight[i]))

		t.score[i] = rowScore(ranks)
		t.heur[i] = rowHeuristic(ranks)
	}
	return t
}

// TrueScore is the true game score embedded in board b (spec: "Σ over
// merges performed in the game's history of 2*(merged tile value)",
// reconstructed losslessly from the board alone).
func (t *Tables) TrueScore(b Board) uint32 {
	return t.score[(b>>0)&RowMask] + t.score[(b>>16)&RowMask] +
		t.score[(b>>32)&RowMask] + t.score[(b>>48)&RowMask]
}

// Heuristic returns the move-ranking heuristic for b, applied row-wise to
// both orientations so that column structure is scored as well as row
// structure (spec §4.3: "score_helper(b, heur) + score_helper(transpose(b), heur)").
func (t *Tables) Heuristic(b Board) eval.Score {
	return t.heurRows(b) + t.heurRows(Transpose(b))
}

func (t *Tables) heurRows(b Board) eval.Score {
	return t.heur[(b>>0)&RowMask] + t.heur[(b>>16)&RowMask] +
		t.heur[(b>>32)&RowMask] + t.heur[(b>>48)&RowMask]
}
