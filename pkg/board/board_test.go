package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransposeInvolution(t *testing.T) {
	boards := []Board{
		0,
		0x123456789abcdef0,
		EmptyBoard.WithCell(0, 0, 1).WithCell(3, 3, 2),
	}
	for _, b := range boards {
		assert.Equal(t, b, Transpose(Transpose(b)))
	}
}

func TestTransposeCell(t *testing.T) {
	b := EmptyBoard.WithCell(0, 1, 5)
	tr := Transpose(b)
	assert.EqualValues(t, 5, tr.At(1, 0))
	assert.EqualValues(t, 0, tr.At(0, 1))
}

func TestCountEmpty(t *testing.T) {
	assert.EqualValues(t, 16, CountEmpty(EmptyBoard))

	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 2)
	assert.EqualValues(t, 14, CountEmpty(b))

	full := Board(0x1111111111111111)
	assert.EqualValues(t, 0, CountEmpty(full))
}

func TestMaxTileRank(t *testing.T) {
	assert.EqualValues(t, 0, MaxTileRank(EmptyBoard))

	b := EmptyBoard.WithCell(0, 0, 3).WithCell(1, 1, 7)
	assert.EqualValues(t, 7, MaxTileRank(b))
}

func TestDistinctNonzeroRanks(t *testing.T) {
	assert.Equal(t, 0, DistinctNonzeroRanks(EmptyBoard))

	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 1).WithCell(0, 2, 2)
	assert.Equal(t, 2, DistinctNonzeroRanks(b))
}

func TestExecuteMoveLeftMergesOnce(t *testing.T) {
	tb := NewTables()

	// 2 2 2 0 -> 4 2 0 0, not 8 0 0 0: each tile merges at most once.
	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 1).WithCell(0, 2, 1)
	got := ExecuteMove(tb, Left, b)

	want := EmptyBoard.WithCell(0, 0, 2).WithCell(0, 1, 1)
	assert.Equal(t, want, got)
}

func TestExecuteMoveRowLiteral(t *testing.T) {
	tb := NewTables()

	// Two rank-1 tiles in positions 0 and 1 of row 0, rest empty: left
	// merges them into one rank-2 tile at position 0; right merges them
	// into one rank-2 tile at position 3.
	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 1)

	left := ExecuteMove(tb, Left, b)
	assert.Equal(t, EmptyBoard.WithCell(0, 0, 2), left)

	right := ExecuteMove(tb, Right, b)
	assert.Equal(t, EmptyBoard.WithCell(0, 3, 2), right)
}

func TestExecuteMoveNoopReturnsSameBoard(t *testing.T) {
	tb := NewTables()

	// Fully packed left row, nothing can slide further left.
	b := EmptyBoard.WithCell(0, 0, 1).WithCell(0, 1, 2).WithCell(0, 2, 3).WithCell(0, 3, 4)
	got := ExecuteMove(tb, Left, b)
	assert.Equal(t, b, got)
}

func TestExecuteMoveUpDownTransposeSymmetry(t *testing.T) {
	tb := NewTables()

	b := EmptyBoard.WithCell(0, 0, 1).WithCell(2, 0, 1).WithCell(3, 1, 2)

	up := ExecuteMove(tb, Up, b)
	viaTranspose := Transpose(ExecuteMove(tb, Left, Transpose(b)))
	assert.Equal(t, viaTranspose, up)

	down := ExecuteMove(tb, Down, b)
	viaTransposeDown := Transpose(ExecuteMove(tb, Right, Transpose(b)))
	assert.Equal(t, viaTransposeDown, down)
}

func TestHasMove(t *testing.T) {
	tb := NewTables()

	// An all-empty board has no tile to slide or merge: every direction is
	// a no-op, so there is no move.
	assert.False(t, HasMove(tb, EmptyBoard))

	// Full board, no equal neighbors anywhere and no empty cells: no move.
	var full Board
	ranks := []uint8{1, 2, 1, 2, 2, 1, 2, 1, 1, 2, 1, 2, 2, 1, 2, 1}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			full = full.WithCell(r, c, ranks[r*4+c])
		}
	}
	assert.False(t, HasMove(tb, full))
}

func TestHexRoundTrip(t *testing.T) {
	b := EmptyBoard.WithCell(0, 0, 1).WithCell(3, 3, 0xf)
	parsed, err := ParseHex(b.Hex())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
}

func TestParseHexInvalid(t *testing.T) {
	_, err := ParseHex("not-hex")
	assert.Error(t, err)
}
