package pool

import (
	"context"
	"time"

	"github.com/herohde/run2048/pkg/board"
	"github.com/herohde/run2048/pkg/search"
	"github.com/herohde/run2048/pkg/store"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// SnapshotInterval is how often the pool rewrites the snapshot file (spec:
// "thread_snapshot" sleeps 1 second between rewrites).
const SnapshotInterval = time.Second

// Pool runs a fixed number of independent game-playing workers, a periodic
// snapshotter, and routes completed games to the log (spec §5, "Worker
// Pool"). Its lifetime is join-on-Stop: Start spawns N+1 long-lived tasks
// (one per worker, one snapshotter) and Stop waits for all of them to
// notice the running flag has cleared and return.
type Pool struct {
	tables  *board.Tables
	engine  *search.Engine
	workers []*Worker
	log     *store.Log
	snap    *store.Snapshot

	running atomic.Bool
	group   *errgroup.Group
}

// New builds a Pool of n workers sharing tables and engine, persisting
// completed games to log and periodic snapshots to snap. Any resumable
// state found in snap is restored into the matching worker before Start is
// called.
func New(tables *board.Tables, engine *search.Engine, n int, log *store.Log, snap *store.Snapshot) (*Pool, error) {
	p := &Pool{
		tables: tables,
		engine: engine,
		log:    log,
		snap:   snap,
	}
	for i := 0; i < n; i++ {
		p.workers = append(p.workers, NewWorker(i, tables, engine))
	}

	records, err := snap.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.WorkerID < 0 || r.WorkerID >= len(p.workers) {
			continue
		}
		p.workers[r.WorkerID].Restore(GameState{MoveNo: r.MoveNo, ScoreOffset: r.ScoreOffset, Board: r.Board})
	}
	return p, nil
}

// Workers returns the pool's workers, in index order.
func (p *Pool) Workers() []*Worker {
	return p.workers
}

// Tables returns the move tables shared by every worker and the engine.
func (p *Pool) Tables() *board.Tables {
	return p.tables
}

// Start launches every worker's game loop and the snapshotter, returning
// immediately. ctx cancellation is a secondary stop path; the primary one
// is Stop, which clears the running flag the loops poll cooperatively.
func (p *Pool) Start(ctx context.Context) {
	p.running.Store(true)
	p.group, ctx = errgroup.WithContext(ctx)

	for _, w := range p.workers {
		w := w
		p.group.Go(func() error {
			return p.runWorker(ctx, w)
		})
	}
	p.group.Go(func() error {
		return p.runSnapshotter(ctx)
	})
}

// Stop clears the running flag and blocks until every worker and the
// snapshotter have returned.
func (p *Pool) Stop() error {
	p.running.Store(false)
	return p.group.Wait()
}

func (p *Pool) runWorker(ctx context.Context, w *Worker) error {
	for p.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		game, err := w.Step(ctx)
		if err != nil {
			return err
		}
		if game != nil {
			logw.Infof(ctx, "worker %v: game over, moves=%v score=%v maxrank=%v", game.WorkerID, game.MoveNo, game.Score, 1<<game.MaxRank)
			if err := p.log.Append(game.WorkerID, game.MoveNo, game.Score, game.MaxRank); err != nil {
				logw.Errorf(ctx, "worker %v: log write failed: %v", game.WorkerID, err)
			}
		}
	}
	return nil
}

func (p *Pool) runSnapshotter(ctx context.Context) error {
	ticker := time.NewTicker(SnapshotInterval)
	defer ticker.Stop()

loop:
	for p.running.Load() {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if err := p.writeSnapshot(); err != nil {
				logw.Errorf(ctx, "snapshot write failed: %v", err)
			}
		}
	}
	return p.writeSnapshot() // final snapshot on the way out, regardless of which exit path fired
}

func (p *Pool) writeSnapshot() error {
	records := make([]store.WorkerRecord, len(p.workers))
	for i, w := range p.workers {
		s := w.Snapshot()
		records[i] = store.WorkerRecord{WorkerID: w.ID, MoveNo: s.MoveNo, ScoreOffset: s.ScoreOffset, Board: s.Board}
	}
	return p.snap.WriteAll(records)
}
