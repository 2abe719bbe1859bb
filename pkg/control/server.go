// Package control implements the daemon's control protocol: a Unix-domain
// stream socket accepting short-lived connections, each sending a single
// ASCII command byte (spec §6, "Control Protocol").
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/herohde/run2048/pkg/pool"
	"github.com/seekerror/logw"
)

// MaxConnections bounds how many client connections the server services
// concurrently (spec: "MAX_CONNECTIONS=16").
const MaxConnections = 16

// acceptPollInterval is how long Accept blocks before the poll loop
// re-checks for Close or ctx cancellation, mirroring the original's short-timeout
// select(2) loop (spec: "socket_handler").
const acceptPollInterval = 10 * time.Millisecond

// connDeadline bounds how long a single connection may take to send its
// command byte and read its reply, so a client that connects and never
// writes (or stops reading) cannot hold a connection slot forever.
const connDeadline = 5 * time.Second

// Server serves the control protocol over a Unix-domain socket.
type Server struct {
	path     string
	workers  *pool.Pool
	listener *net.UnixListener
	stop     chan struct{}
	shutdown chan struct{}
	conns    chan struct{} // MaxConnections-sized semaphore
}

// NewServer binds path as a Unix-domain stream socket. Any file already at
// path (a stale socket) is removed first; callers are expected to have
// already taken the single-instance file lock before binding.
func NewServer(path string, workers *pool.Pool) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("control: remove stale socket %v: %w", path, err)
	}

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("control: listen on %v: %w", path, err)
	}

	return &Server{
		path:     path,
		workers:  workers,
		listener: l,
		stop:     make(chan struct{}),
		shutdown: make(chan struct{}),
		conns:    make(chan struct{}, MaxConnections),
	}, nil
}

// Serve accepts connections until ctx is done or Close is called. It polls
// Accept with a short deadline rather than blocking indefinitely, so Close
// or ctx cancellation are noticed promptly (spec: "socket_handler").
func (s *Server) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		default:
		}

		if err := s.listener.SetDeadline(time.Now().Add(acceptPollInterval)); err != nil {
			return fmt.Errorf("control: set accept deadline: %w", err)
		}
		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.stop:
				return nil
			default:
			}
			return fmt.Errorf("control: accept: %w", err)
		}

		select {
		case s.conns <- struct{}{}:
			go s.handle(ctx, conn)
		default:
			logw.Errorf(ctx, "control: dropping connection, %v already active", MaxConnections)
			conn.Close()
		}
	}
}

// Close stops Serve and releases the listening socket.
func (s *Server) Close() error {
	close(s.stop)
	return s.listener.Close()
}

// ShutdownRequested is closed once a client has sent the 'q'/'Q' shutdown
// command.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdown
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() { <-s.conns }()
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(connDeadline)); err != nil {
		logw.Errorf(ctx, "control: set connection deadline: %v", err)
		return
	}

	r := bufio.NewReader(conn)
	cmd, err := r.ReadByte()
	if err != nil {
		return
	}

	switch cmd {
	case 'q', 'Q':
		s.requestShutdown()
	case 'b', 'B':
		if err := writeBoardDump(conn, s.workers); err != nil {
			logw.Errorf(ctx, "control: board dump: %v", err)
		}
	default:
		logw.Debugf(ctx, "control: unknown command %q", cmd)
	}
}

func (s *Server) requestShutdown() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

// writeBoardDump writes "<N>\n" followed by one "<i>,<moveno>,<score>,
// <board_hex16>\n" line per worker (spec: "output_board_all").
func writeBoardDump(w net.Conn, p *pool.Pool) error {
	workers := p.Workers()

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", len(workers)); err != nil {
		return err
	}
	for _, worker := range workers {
		s := worker.Snapshot()
		if _, err := fmt.Fprintf(bw, "%d,%d,%d,%s\n", worker.ID, s.MoveNo, s.Score(p.Tables()), s.Board.Hex()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
