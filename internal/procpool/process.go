package procpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/brhoades44/batchbench/internal/logging"
	"github.com/brhoades44/batchbench/internal/workload"
)

const (
	bindTimeout      = 10 * time.Second
	dialInterval     = 25 * time.Millisecond
	dialTimeout      = 100 * time.Millisecond
	helloTimeout     = 5 * time.Second
	processWaitDelay = 100 * time.Millisecond

	// Retry configuration for port collision handling.
	maxPortRetries    = 5
	initialBackoff    = 100 * time.Millisecond
	maxBackoff        = 2 * time.Second
	backoffMultiplier = 2
)

// workerArgs produces the argv for a worker subprocess. Overridable in tests
// so the launcher can be exercised without a built batchbench binary.
var workerArgs = func(port int) (string, []string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("resolving own binary: %w", err)
	}
	return exe, []string{"worker", fmt.Sprintf("--port=%d", port)}, nil
}

// portListener keeps a TCP listener open while a port is being allocated, so
// no other process can grab it between allocation and worker startup. It
// must be released before the worker can bind.
type portListener struct {
	listener net.Listener
	port     int
}

// Launcher spawns worker subprocesses and hands back connected Workers.
type Launcher struct {
	maxRetries    int
	portListeners map[int]*portListener
	mu            sync.Mutex
}

// NewLauncher creates a launcher with the default retry policy.
func NewLauncher() *Launcher {
	return &Launcher{
		maxRetries:    maxPortRetries,
		portListeners: make(map[int]*portListener),
	}
}

// Worker is one live worker subprocess with its host-side connection.
type Worker struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	cmd  *exec.Cmd
	pid  int
}

// PID returns the worker's process ID.
func (w *Worker) PID() int {
	return w.pid
}

// Call sends one work item and blocks until the worker replies. Interrupting
// a blocked Call is done by closing or deadline-poisoning the connection
// (see Interrupt).
func (w *Worker) Call(id int, req workload.Request) (Reply, error) {
	if err := w.enc.Encode(Call{ID: id, Request: req}); err != nil {
		return Reply{}, fmt.Errorf("sending call %d: %w", id, err)
	}
	var reply Reply
	if err := w.dec.Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("reading reply %d: %w", id, err)
	}
	if reply.ID != id {
		return Reply{}, fmt.Errorf("worker answered call %d with reply %d", id, reply.ID)
	}
	return reply, nil
}

// Interrupt poisons the connection so a blocked Call returns promptly.
func (w *Worker) Interrupt() {
	_ = w.conn.SetDeadline(time.Now())
}

// Close tears the worker down: connection first, then the process. Called on
// every exit path of a run, cancellation included.
func (w *Worker) Close() error {
	err := w.conn.Close()
	if w.cmd != nil && w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
		_ = w.cmd.Wait()
	}
	if err != nil {
		return fmt.Errorf("closing worker connection: %w", err)
	}
	return nil
}

// Start launches one worker subprocess, retrying with exponential backoff
// when the reserved port is stolen before the worker binds it.
func (l *Launcher) Start(ctx context.Context) (*Worker, error) {
	log := logging.FromContext(ctx)
	var lastErr error
	backoff := initialBackoff

	for attempt := range l.maxRetries {
		if attempt > 0 {
			log.Debug().
				Str("component", "procpool").
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("retrying worker launch after port collision")
			time.Sleep(backoff)
			backoff = min(backoff*backoffMultiplier, maxBackoff)
		}

		w, err := l.startOnce(ctx)
		if err == nil {
			return w, nil
		}
		if !isPortCollisionError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", l.maxRetries, lastErr)
}

func (l *Launcher) startOnce(ctx context.Context) (*Worker, error) {
	log := logging.FromContext(ctx)

	port, err := l.allocatePortWithListener(ctx)
	if err != nil {
		return nil, err
	}
	// Hand the port over to the worker.
	if err := l.releasePortListener(port); err != nil {
		return nil, err
	}

	exe, args, err := workerArgs(port)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // argv is the re-executed batchbench binary, not user input
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stderr = os.Stderr
	cmd.WaitDelay = processWaitDelay
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}

	log.Debug().
		Str("component", "procpool").
		Int("pid", cmd.Process.Pid).
		Int("port", port).
		Msg("worker process started")

	conn, err := dialWorker(ctx, port)
	if err != nil {
		killProcess(cmd)
		return nil, fmt.Errorf("worker failed to bind port %d: %w", port, err)
	}

	w := &Worker{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
		cmd:  cmd,
		pid:  cmd.Process.Pid,
	}

	if err := handshake(w); err != nil {
		_ = w.Close()
		return nil, err
	}

	log.Debug().
		Str("component", "procpool").
		Int("pid", w.pid).
		Int("port", port).
		Msg("worker connected")
	return w, nil
}

// allocatePortWithListener reserves a free loopback port by holding its
// listener open until releasePortListener is called.
func (l *Launcher) allocatePortWithListener(ctx context.Context) (int, error) {
	lc := &net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("creating listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		_ = listener.Close()
		return 0, errors.New("listener is not a TCP address")
	}
	port := tcpAddr.Port

	l.mu.Lock()
	l.portListeners[port] = &portListener{listener: listener, port: port}
	l.mu.Unlock()

	return port, nil
}

func (l *Launcher) releasePortListener(port int) error {
	l.mu.Lock()
	pl, exists := l.portListeners[port]
	if exists {
		delete(l.portListeners, port)
	}
	l.mu.Unlock()

	if !exists {
		return fmt.Errorf("no listener for port %d", port)
	}
	if err := pl.listener.Close(); err != nil {
		return fmt.Errorf("closing listener: %w", err)
	}
	return nil
}

// dialWorker polls the worker's port until it accepts or the bind timeout
// expires.
func dialWorker(ctx context.Context, port int) (net.Conn, error) {
	bindCtx, cancel := context.WithTimeout(ctx, bindTimeout)
	defer cancel()

	address := fmt.Sprintf("127.0.0.1:%d", port)
	dialer := &net.Dialer{Timeout: dialTimeout}
	ticker := time.NewTicker(dialInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bindCtx.Done():
			return nil, fmt.Errorf("timeout waiting for worker to bind: %w", bindCtx.Err())
		case <-ticker.C:
			conn, err := dialer.DialContext(bindCtx, "tcp", address)
			if err == nil {
				return conn, nil
			}
		}
	}
}

// handshake reads the worker's hello and verifies protocol compatibility.
func handshake(w *Worker) error {
	_ = w.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer func() { _ = w.conn.SetReadDeadline(time.Time{}) }()

	var hello Hello
	if err := w.dec.Decode(&hello); err != nil {
		return fmt.Errorf("reading worker hello: %w", err)
	}
	if err := CheckProtocol(hello.Protocol); err != nil {
		return err
	}
	return nil
}

func killProcess(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// isPortCollisionError reports whether err indicates the reserved port was
// taken before the worker could bind it. String matching keeps this portable
// across platforms whose syscall errors differ.
func isPortCollisionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use") ||
		strings.Contains(errStr, "bind: address already in use") ||
		strings.Contains(errStr, "failed to bind")
}
