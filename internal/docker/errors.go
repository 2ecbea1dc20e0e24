package docker

import (
	"errors"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
)

// The closed set of errors the Engine Adapter returns. Callers compare
// against these with errors.Is rather than inspecting error strings; the
// RPC Surface maps each one to a grpc/status code (internal/rpcapi.MapError).
var (
	ErrContainerNotFound    = errors.New("docker: container not found")
	ErrPermissionDenied     = errors.New("docker: permission denied")
	ErrConnectionFailed     = errors.New("docker: connection to engine failed")
	ErrNotSwarmManager      = errors.New("docker: node is not a swarm manager")
	ErrUnsupportedLogDriver = errors.New("docker: container's log driver does not support reading logs")
	ErrStreamClosed         = errors.New("docker: stream closed")
	ErrLineTooLarge         = errors.New("docker: log line exceeds maximum size")
	ErrInvalidRegex         = errors.New("docker: invalid filter pattern")
	ErrInvalidArgument      = errors.New("docker: invalid argument")
)

// wrapEngineErr classifies a raw error from the moby/moby client into the
// closed taxonomy above, using the same errdefs predicates the client
// library itself exposes for its typed errors.
func wrapEngineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case cerrdefs.IsNotFound(err):
		return fmt.Errorf("%s: %w: %v", op, ErrContainerNotFound, err)
	case cerrdefs.IsPermissionDenied(err):
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	case cerrdefs.IsUnavailable(err), cerrdefs.IsCanceled(err), cerrdefs.IsDeadlineExceeded(err):
		return fmt.Errorf("%s: %w: %v", op, ErrConnectionFailed, err)
	case cerrdefs.IsInvalidArgument(err):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidArgument, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
