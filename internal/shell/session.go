// Package shell implements the Agent-side interactive exec state machine
// described in spec §4.5: exec_create/exec_start/exec_resize/exec_inspect
// wrapped around internal/docker's exec calls, exposed to the RPC Surface
// as a duplex byte stream.
package shell

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rosshhun/docktail-go/internal/docker"
)

// State is one stage of a Session's lifecycle (spec §4.5).
type State int

const (
	StateInit State = iota
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// inspectTimeout bounds how long Close waits for a final exec_inspect to
// resolve an exit code before reporting -1 (spec §4.5).
const inspectTimeout = 5 * time.Second

// Session is one interactive exec attached to a container. It is safe for
// concurrent use: Read/Write/Resize may run concurrently with Close.
type Session struct {
	engine docker.API
	execID string
	tty    bool
	conn   io.ReadWriteCloser

	mu    sync.Mutex
	state State
}

// Create runs exec_create against engine and returns a Session in state
// Init. A 404 from the engine surfaces as docker.ErrContainerNotFound.
func Create(ctx context.Context, engine docker.API, containerID string, cmd []string, tty bool, workingDir string, env []string) (*Session, error) {
	execID, err := engine.ExecCreate(ctx, containerID, cmd, tty, workingDir, env)
	if err != nil {
		return nil, err
	}
	return &Session{engine: engine, execID: execID, tty: tty, state: StateInit}, nil
}

// Start attaches the duplex channel and transitions Init -> Running. It
// is a no-op if already Running.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return nil
	}
	if s.state != StateInit {
		return errors.New("shell: Start called outside Init state")
	}
	conn, err := s.engine.ExecAttach(ctx, s.execID, s.tty)
	if err != nil {
		return err
	}
	s.conn = conn
	s.state = StateRunning
	return nil
}

// Write sends client input to the container. Valid only in Running.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != StateRunning || conn == nil {
		return 0, errors.New("shell: Write called outside Running state")
	}
	return conn.Write(p)
}

// Read pulls container output. Callers treat io.EOF as the signal to
// begin closing, per the Running -> Closing transition on EOF from
// either direction.
func (s *Session) Read(p []byte) (int, error) {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != StateRunning || conn == nil {
		return 0, errors.New("shell: Read called outside Running state")
	}
	n, err := conn.Read(p)
	if errors.Is(err, io.EOF) {
		s.beginClosing()
	}
	return n, err
}

// Resize applies a terminal size change to the active exec.
func (s *Session) Resize(ctx context.Context, rows, cols uint) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != StateRunning {
		return errors.New("shell: Resize called outside Running state")
	}
	return s.engine.ExecResize(ctx, s.execID, rows, cols)
}

// beginClosing transitions Running -> Closing, idempotently.
func (s *Session) beginClosing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateClosing
	}
}

// Cancel is the client-cancellation path into Closing, e.g. when the
// cluster-side bridge's WebSocket closes.
func (s *Session) Cancel() {
	s.beginClosing()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Close drains the session to Closed, resolving an exit code via
// exec_inspect. If inspect doesn't resolve within inspectTimeout, the
// session closes with exit_code -1 (spec §4.5).
func (s *Session) Close(ctx context.Context) (exitCode int, err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return -1, nil
	}
	s.state = StateClosing
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	cctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	running, code, inspectErr := s.engine.ExecStatus(cctx, s.execID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	if inspectErr != nil || running {
		return -1, inspectErr
	}
	return code, nil
}

// State reports the session's current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExecID returns the underlying engine exec id, e.g. for logging.
func (s *Session) ExecID() string {
	return s.execID
}
