package agentrpc

import (
	"context"
	"errors"
	"io"

	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"github.com/rosshhun/docktail-go/internal/shell"
)

// ExecCreate is the one-shot exec-create surface, independent of OpenShell
// (used e.g. by callers that only need an exec id to poll via
// ExecInspect, not a live duplex stream).
func (s *Server) ExecCreate(ctx context.Context, req *rpcapi.ExecCreateRequest) (*rpcapi.ExecCreateResponse, error) {
	execID, err := s.engine.ExecCreate(ctx, req.ContainerID, req.Cmd, req.Tty, req.WorkingDir, req.Env)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rpcapi.ExecCreateResponse{ExecID: execID}, nil
}

// ExecInspect reports the exec's running state and, once finished, its
// exit code.
func (s *Server) ExecInspect(ctx context.Context, req *rpcapi.ExecInspectRequest) (*rpcapi.ExecInspectResponse, error) {
	running, code, err := s.engine.ExecStatus(ctx, req.ExecID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rpcapi.ExecInspectResponse{Running: running, ExitCode: int32(code)}, nil
}

// OpenShell drives one interactive exec session end to end: the first
// client frame must be "init", which creates and starts the Shell
// Session; subsequent "input"/"resize" frames drive it until either side
// closes (spec §4.5).
func (s *Server) OpenShell(stream rpcapi.ShellService_OpenShellServer) error {
	ctx := stream.Context()

	init, err := stream.Recv()
	if err != nil {
		return err
	}
	if init.Type != "init" || init.ContainerID == "" {
		return stream.Send(&rpcapi.ShellServerFrame{Type: "error", Code: "INVALID_INIT", Message: "first frame must be init with a container_id"})
	}

	sess, err := shell.Create(ctx, s.engine, init.ContainerID, init.Command, init.Tty, "", nil)
	if err != nil {
		_ = stream.Send(&rpcapi.ShellServerFrame{Type: "error", Code: "EXEC_FAILED", Message: err.Error()})
		return mapErr(err)
	}
	if err := sess.Start(ctx); err != nil {
		_ = stream.Send(&rpcapi.ShellServerFrame{Type: "error", Code: "EXEC_FAILED", Message: err.Error()})
		return mapErr(err)
	}
	if init.Cols > 0 || init.Rows > 0 {
		_ = sess.Resize(ctx, uint(init.Rows), uint(init.Cols))
	}

	errCh := make(chan error, 2)
	go func() { errCh <- pumpSessionToStream(sess, stream) }()
	go func() { errCh <- pumpStreamToSession(stream, sess) }()

	firstErr := <-errCh
	sess.Cancel()
	<-errCh

	code, closeErr := sess.Close(ctx)
	exitErr := firstErr
	if exitErr == nil {
		exitErr = closeErr
	}
	message := ""
	if exitErr != nil && !errors.Is(exitErr, io.EOF) {
		message = exitErr.Error()
	}
	return stream.Send(&rpcapi.ShellServerFrame{Type: "exit", ExitCode: int32(code), Message: message})
}

func pumpSessionToStream(sess *shell.Session, stream rpcapi.ShellService_OpenShellServer) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := sess.Read(buf)
		if n > 0 {
			out := append([]byte(nil), buf[:n]...)
			if sendErr := stream.Send(&rpcapi.ShellServerFrame{Type: "output", Output: out}); sendErr != nil {
				return sendErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func pumpStreamToSession(stream rpcapi.ShellService_OpenShellServer, sess *shell.Session) error {
	for {
		frame, err := stream.Recv()
		if err != nil {
			sess.Cancel()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch frame.Type {
		case "input":
			if _, err := sess.Write(frame.Input); err != nil {
				return err
			}
		case "resize":
			if err := sess.Resize(stream.Context(), uint(frame.Rows), uint(frame.Cols)); err != nil {
				return err
			}
		}
	}
}
