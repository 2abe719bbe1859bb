// Command run2048ctl is an interactive debug client for the run2048d
// control protocol: it sends one command byte per line and prints
// whatever the daemon writes back (spec §6, "Control Protocol" — the
// viewer program itself is out of scope, but a line-oriented client for
// exercising the protocol by hand is not).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/seekerror/logw"
	"github.com/spf13/viper"
)

var socketPath = flag.String("socket", "", "Control socket path (default: RUN2048_SOCKET_PATH or .2048-run.socket)")

func main() {
	flag.Parse()
	ctx := context.Background()

	path := *socketPath
	if path == "" {
		v := viper.New()
		v.SetEnvPrefix("run2048")
		v.AutomaticEnv()
		v.SetDefault("socket_path", ".2048-run.socket")
		path = v.GetString("socket_path")
	}

	if _, err := os.Stat(path); err != nil {
		logw.Infof(ctx, "run2048ctl: no socket found at %v; the daemon may not be running", path)
	}

	rl, err := readline.New("2048> ")
	if err != nil {
		logw.Exitf(ctx, "run2048ctl: %v", err)
	}
	defer rl.Close()

	fmt.Println("run2048ctl: commands are 'b' (dump boards) and 'q' (stop daemon); Ctrl-D to exit")

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return
		}

		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}
		if err := send(path, cmd[0]); err != nil {
			fmt.Fprintf(os.Stderr, "run2048ctl: %v\n", err)
		}
	}
}

// send opens a fresh connection for a single command byte, matching the
// daemon's one-command-per-connection protocol, and prints the reply
// until the daemon closes its end.
func send(path string, cmd byte) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	r := bufio.NewReader(conn)
	if _, err := io.Copy(os.Stdout, r); err != nil && err != io.EOF {
		return fmt.Errorf("read reply: %w", err)
	}
	return nil
}
