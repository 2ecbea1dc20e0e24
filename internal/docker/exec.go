package docker

import (
	"context"
	"io"

	"github.com/moby/moby/client"
)

// ExecCreate creates an exec instance inside a running container and
// returns its ID. Split out from the blocking ExecContainer helper above so
// the Shell Session can drive create/attach/resize/inspect independently.
func (c *Client) ExecCreate(ctx context.Context, containerID string, cmd []string, tty bool, workingDir string, env []string) (string, error) {
	resp, err := c.api.ExecCreate(ctx, containerID, client.ExecCreateOptions{
		Cmd:          cmd,
		Tty:          tty,
		WorkingDir:   workingDir,
		Env:          env,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", wrapEngineErr("exec create", err)
	}
	return resp.ID, nil
}

// ExecAttach attaches to a created exec instance and returns the
// bidirectional hijacked connection: writes go to the process's stdin,
// reads come from its multiplexed (or raw, if tty) stdout/stderr.
func (c *Client) ExecAttach(ctx context.Context, execID string, tty bool) (io.ReadWriteCloser, error) {
	resp, err := c.api.ExecAttach(ctx, execID, client.ExecAttachOptions{Tty: tty})
	if err != nil {
		return nil, wrapEngineErr("exec attach", err)
	}
	return resp.Conn, nil
}

// ExecResize resizes the TTY of a running exec instance.
func (c *Client) ExecResize(ctx context.Context, execID string, rows, cols uint) error {
	err := c.api.ExecResize(ctx, execID, client.ExecResizeOptions{Height: rows, Width: cols})
	return wrapEngineErr("exec resize", err)
}

// ExecStatus reports whether an exec instance is still running and, once
// it has exited, its exit code.
func (c *Client) ExecStatus(ctx context.Context, execID string) (running bool, exitCode int, err error) {
	resp, err := c.api.ExecInspect(ctx, execID, client.ExecInspectOptions{})
	if err != nil {
		return false, 0, wrapEngineErr("exec inspect", err)
	}
	return resp.Running, resp.ExitCode, nil
}
