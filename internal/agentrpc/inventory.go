package agentrpc

import (
	"context"

	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// ListContainers delegates straight to the Inventory Store's filter/
// truncate logic (spec §4.2).
func (s *Server) ListContainers(_ context.Context, req *rpcapi.ListContainersRequest) (*rpcapi.ListContainersResponse, error) {
	snapshots, total := s.inventory.List(req.StateFilter, req.IncludeStopped, req.Limit)
	return &rpcapi.ListContainersResponse{Containers: snapshots, TotalCount: total}, nil
}

// InspectContainer calls the engine's raw inspect through the store, which
// hot-patches its cached entry with the fresh snapshot before returning.
func (s *Server) InspectContainer(ctx context.Context, req *rpcapi.InspectContainerRequest) (*rpcapi.InspectContainerResponse, error) {
	snap, detail, err := s.inventory.Inspect(ctx, req.ContainerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rpcapi.InspectContainerResponse{
		Snapshot: &rpcapi.ContainerSnapshot{
			ID: snap.ID, Name: snap.Name, Image: snap.Image, State: snap.State,
			Labels: snap.Labels, CreatedAt: snap.CreatedAt,
		},
		Detail: detail,
	}, nil
}
