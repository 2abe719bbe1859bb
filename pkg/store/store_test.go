package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/herohde/run2048/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.snapshot")

	s, err := OpenSnapshot(path)
	require.NoError(t, err)
	defer s.Close()

	records := []WorkerRecord{
		{MoveNo: 12, ScoreOffset: 4, Board: board.EmptyBoard.WithCell(0, 0, 3)},
		{MoveNo: 0, ScoreOffset: 0, Board: board.EmptyBoard},
	}
	require.NoError(t, s.WriteAll(records))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].MoveNo, got[0].MoveNo)
	assert.Equal(t, records[0].ScoreOffset, got[0].ScoreOffset)
	assert.Equal(t, records[0].Board, got[0].Board)
	assert.Equal(t, records[1].Board, got[1].Board)
}

func TestSnapshotWriteAllTruncatesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.snapshot")
	s, err := OpenSnapshot(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteAll([]WorkerRecord{
		{MoveNo: 1, Board: board.EmptyBoard.WithCell(0, 0, 1)},
		{MoveNo: 2, Board: board.EmptyBoard.WithCell(0, 0, 2)},
	}))
	require.NoError(t, s.WriteAll([]WorkerRecord{
		{MoveNo: 9, Board: board.EmptyBoard.WithCell(3, 3, 9)},
	}))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].MoveNo)
}

func TestSnapshotReadAllSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.snapshot")
	require.NoError(t, os.WriteFile(path, []byte("not,a,valid,line\n1,0,0000000000000001\n"), 0644))

	s, err := OpenSnapshot(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].MoveNo)
}

func TestAcquireLockRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.lock")

	l1, err := AcquireLock(path)
	require.NoError(t, err)
	defer l1.Release()

	_, err = AcquireLock(path)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestTestRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.lock")

	running, err := TestRunning(path)
	require.NoError(t, err)
	assert.False(t, running)

	l, err := AcquireLock(path)
	require.NoError(t, err)
	defer l.Release()

	running, err = TestRunning(path)
	require.NoError(t, err)
	assert.True(t, running)
}

func TestLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.log")

	l, err := OpenLog(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(0, 42, 2048, 11))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0,42,2048,2048\n", string(data))
}

func TestWaitForSocketStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2048.sock")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, WaitForSocket(ctx, path, true))
}
