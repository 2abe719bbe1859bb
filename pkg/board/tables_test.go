package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTablesRowLeftRightAreMirrors(t *testing.T) {
	tb := NewTables()

	// row_right is row_left applied to the reversed row, reversed back:
	// rowRight[r] == reverse(rowLeft[reverse(r)]).
	for _, r := range []Row{0x1120, 0x0012, 0x1111, 0x2121} {
		want := reverseRow(Row(tb.rowLeft[reverseRow(r)]))
		assert.Equal(t, want, Row(tb.rowRight[r]))
	}
}

func TestTrueScoreSingleMerge(t *testing.T) {
	tb := NewTables()

	// One rank-2 tile (built from merging two rank-1s) contributes exactly
	// (2-1)*2^2 = 4 true-score points, per the merge-score recurrence.
	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 2)
	assert.EqualValues(t, 4, tb.TrueScore(b))
}

func TestTrueScoreEmpty(t *testing.T) {
	tb := NewTables()
	assert.EqualValues(t, 0, tb.TrueScore(EmptyBoard))
}

func TestTrueScoreAdditiveAcrossRows(t *testing.T) {
	tb := NewTables()

	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 2).WithCell(1, 0, 3)
	want := tb.TrueScore(EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 2)) +
		tb.TrueScore(EmptyBoard.WithCell(1, 0, 3))
	assert.Equal(t, want, tb.TrueScore(b))
}

func TestHeuristicRewardsEmptyBoard(t *testing.T) {
	tb := NewTables()

	empty := tb.Heuristic(EmptyBoard)
	cluttered := tb.Heuristic(EmptyBoard.WithCell(0, 0, 5).WithCell(1, 1, 7).WithCell(2, 2, 3))
	assert.Greater(t, float64(empty), float64(cluttered))
}

func TestHeuristicRewardsMonotoneOverScrambled(t *testing.T) {
	tb := NewTables()

	monotone := EmptyBoard.WithCell(0, 0, 4).WithCell(0, 1, 3).WithCell(0, 2, 2).WithCell(0, 3, 1)
	scrambled := EmptyBoard.WithCell(0, 0, 4).WithCell(0, 1, 1).WithCell(0, 2, 3).WithCell(0, 3, 2)

	assert.Greater(t, float64(tb.Heuristic(monotone)), float64(tb.Heuristic(scrambled)))
}

func TestRowScoreRecurrence(t *testing.T) {
	assert.EqualValues(t, 0, mergeScoreOf[0])
	assert.EqualValues(t, 0, mergeScoreOf[1])
	assert.EqualValues(t, 4, mergeScoreOf[2])
	assert.EqualValues(t, 8+2*4, mergeScoreOf[3])
}
