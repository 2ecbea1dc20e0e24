package agentrpc

import (
	"context"
	"fmt"

	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// stopTimeoutSecs bounds how long the engine waits for a container to
// stop gracefully before killing it, mirroring the Docker CLI's default.
const stopTimeoutSecs = 10

// ContainerAction dispatches a mutating lifecycle action against the
// Engine Adapter. The action string is validated against the closed set
// the spec's supplemented Control surface defines (§4.1 "swarm/image/
// volume/network operations... part of the contract").
func (s *Server) ContainerAction(ctx context.Context, req *rpcapi.ContainerActionRequest) (*rpcapi.ContainerActionResponse, error) {
	var err error
	switch req.Action {
	case "stop":
		err = s.engine.StopContainer(ctx, req.ContainerID, stopTimeoutSecs)
	case "start":
		err = s.engine.StartContainer(ctx, req.ContainerID)
	case "restart":
		err = s.engine.RestartContainer(ctx, req.ContainerID)
	default:
		err = fmt.Errorf("agentrpc: %w: unknown container action %q", docker.ErrInvalidArgument, req.Action)
	}
	if err != nil {
		return &rpcapi.ContainerActionResponse{Outcome: "failed", Error: err.Error()}, mapErr(err)
	}
	return &rpcapi.ContainerActionResponse{Outcome: "ok"}, nil
}

// PullImage pulls refStr through the Engine Adapter and resolves the
// resulting local digest for the caller to record.
func (s *Server) PullImage(ctx context.Context, req *rpcapi.PullImageRequest) (*rpcapi.PullImageResponse, error) {
	if err := s.engine.PullImage(ctx, req.ImageRef); err != nil {
		return &rpcapi.PullImageResponse{Error: err.Error()}, mapErr(err)
	}
	digest, err := s.engine.ImageDigest(ctx, req.ImageRef)
	if err != nil {
		return &rpcapi.PullImageResponse{Error: err.Error()}, mapErr(err)
	}
	return &rpcapi.PullImageResponse{Digest: digest}, nil
}
