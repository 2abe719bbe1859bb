// Command run2048d is the run2048 daemon: it plays a fixed number of
// independent games of 2048 forever, using expectimax search to choose
// every move, and exposes their live state over a control socket (spec §1).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"github.com/herohde/run2048/pkg/board"
	"github.com/herohde/run2048/pkg/control"
	"github.com/herohde/run2048/pkg/pool"
	"github.com/herohde/run2048/pkg/search"
	"github.com/herohde/run2048/pkg/store"
	"github.com/pbnjay/memory"
	"github.com/seekerror/logw"
	"github.com/spf13/viper"
)

var (
	daemonize = flag.Bool("d", false, "Fork to background and wait for the daemon to come up")
	stop      = flag.Bool("s", false, "Stop the running daemon and wait for it to exit")
	workers   = flag.Int("n", 0, "Number of worker games to run (0 autodetects from CPU count)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: run2048d [options]

run2048d plays 2048 forever across a fixed number of independent workers,
picking every move with expectimax search, and serves their live state
over a Unix-domain control socket.

Options:
`)
		flag.PrintDefaults()
	}
}

// config binds the three file paths the daemon needs to RUN2048_*
// environment variables, falling back to the original CLI's defaults
// (spec: "RUN2048_SNAPSHOT_FILE", "RUN2048_LOG_FILE", "RUN2048_SOCKET_PATH").
type config struct {
	SnapshotFile string
	LogFile      string
	SocketPath   string
}

func loadConfig() config {
	v := viper.New()
	v.SetEnvPrefix("run2048")
	v.AutomaticEnv()
	v.SetDefault("snapshot_file", "2048.snapshot")
	v.SetDefault("log_file", "2048.log")
	v.SetDefault("socket_path", ".2048-run.socket")

	return config{
		SnapshotFile: v.GetString("snapshot_file"),
		LogFile:      v.GetString("log_file"),
		SocketPath:   v.GetString("socket_path"),
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()
	cfg := loadConfig()

	switch {
	case *stop:
		stopDaemon(ctx, cfg)
	case *daemonize:
		forkAndWait(ctx, cfg)
	default:
		run(ctx, cfg, *workers)
	}
}

// stopDaemon sends the 'q' shutdown command and waits up to 20s for both
// the log and snapshot file locks to be released (spec: "do_stop_daemon").
func stopDaemon(ctx context.Context, cfg config) {
	conn, err := net.Dial("unix", cfg.SocketPath)
	if err != nil {
		logw.Exitf(ctx, "run2048d: daemon not reachable at %v: %v", cfg.SocketPath, err)
	}
	if _, err := conn.Write([]byte("q")); err != nil {
		logw.Exitf(ctx, "run2048d: send stop command: %v", err)
	}
	conn.Close()

	err = retry.Do(
		func() error {
			for _, path := range []string{cfg.LogFile, cfg.SnapshotFile} {
				running, err := store.TestRunning(path)
				if err != nil {
					return err
				}
				if running {
					return fmt.Errorf("lock on %v still held", path)
				}
			}
			return nil
		},
		retry.Attempts(40),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		logw.Exitf(ctx, "run2048d: daemon did not stop within 20s: %v", err)
	}
	logw.Infof(ctx, "run2048d: daemon stopped")
}

// forkAndWait re-execs the current binary without -d, detached from this
// process's terminal, then waits for the control socket to appear before
// returning (spec: "main.c" fork + wait_daemon(true, ...)).
func forkAndWait(ctx context.Context, cfg config) {
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "-d" {
			args = append(args, a)
		}
	}

	cmd := exec.Command(os.Args[0], args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		logw.Exitf(ctx, "run2048d: fork: %v", err)
	}
	_ = cmd.Process.Release()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := store.WaitForSocket(waitCtx, cfg.SocketPath, true); err != nil {
		logw.Exitf(ctx, "run2048d: daemon did not come up within 20s: %v", err)
	}
	logw.Infof(ctx, "run2048d: daemon running, socket %v", cfg.SocketPath)
}

// run is the daemon proper: acquire the single-instance lock, wire up the
// board tables, search engine, worker pool and control server, then block
// until asked to stop.
func run(ctx context.Context, cfg config, n int) {
	logLock, err := store.AcquireLock(cfg.LogFile)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}
	defer logLock.Release()

	snapLock, err := store.AcquireLock(cfg.SnapshotFile)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}
	defer snapLock.Release()

	if n <= 0 {
		n = defaultWorkerCount(ctx)
	}

	tables := board.NewTables()
	engine := search.New(tables)

	log, err := store.OpenLog(cfg.LogFile)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}
	defer log.Close()

	snap, err := store.OpenSnapshot(cfg.SnapshotFile)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}
	defer snap.Close()

	p, err := pool.New(tables, engine, n, log, snap)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.Start(runCtx)
	logw.Infof(ctx, "run2048d: started %v workers", n)

	server, err := control.NewServer(cfg.SocketPath, p)
	if err != nil {
		logw.Exitf(ctx, "run2048d: %v", err)
	}
	defer os.Remove(cfg.SocketPath)
	go func() {
		if err := server.Serve(runCtx); err != nil {
			logw.Errorf(ctx, "run2048d: control server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)

	select {
	case s := <-sig:
		logw.Infof(ctx, "run2048d: received %v, shutting down", s)
	case <-server.ShutdownRequested():
		logw.Infof(ctx, "run2048d: shutdown requested over control socket")
	}

	// Stop the pool first, via its cooperative running flag: workers finish
	// their in-flight Step and exit on their own, so no in-flight search
	// observes ctx cancellation and returns search.ErrHalted. Only cancel
	// runCtx (the secondary stop path) once the pool has fully drained.
	_ = server.Close()
	if err := p.Stop(); err != nil {
		logw.Errorf(ctx, "run2048d: pool stop: %v", err)
	}
	cancel()
}

// defaultWorkerCount picks one worker per CPU, logging the memory budget
// this implies (spec: "get_cpu_count" replaced by runtime.NumCPU, the
// memory check is new: run2048d has no fixed per-worker memory cost the
// way the original's table allocation did, but a high worker count still
// competes for the same search-cache memory, so it is worth logging).
func defaultWorkerCount(ctx context.Context) int {
	n := runtime.NumCPU()
	logw.Infof(ctx, "run2048d: defaulting to %v workers (%v CPUs, %vMB system memory)",
		n, n, memory.TotalMemory()/(1<<20))
	return n
}
