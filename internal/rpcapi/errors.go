package rpcapi

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rosshhun/docktail-go/internal/docker"
)

// MapError turns the closed error taxonomy surfaced by the Engine Adapter,
// Parser Subsystem, and Log Stream Core into a grpc/status error, the same
// way the teacher's cluster server turns internal errors into
// status.Error(codes.X, ...) at the RPC boundary.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, docker.ErrContainerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, docker.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, docker.ErrConnectionFailed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, docker.ErrNotSwarmManager):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, docker.ErrUnsupportedLogDriver):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, docker.ErrStreamClosed):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, docker.ErrLineTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, docker.ErrInvalidRegex):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, docker.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
