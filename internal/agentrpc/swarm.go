package agentrpc

import (
	"context"

	"github.com/moby/moby/api/types/swarm"

	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// IsSwarmManager reports whether the local engine is an active Swarm
// manager, the precondition the Cluster gateway's Discovered agent source
// checks before trusting this agent's ListNodes (spec §4.7).
func (s *Server) IsSwarmManager(ctx context.Context, _ *rpcapi.IsSwarmManagerRequest) (*rpcapi.IsSwarmManagerResponse, error) {
	return &rpcapi.IsSwarmManagerResponse{IsManager: s.engine.IsSwarmManager(ctx)}, nil
}

// ListNodes returns the Swarm node list, trimmed to the fields the Agent
// Pool's Discovered source needs.
func (s *Server) ListNodes(ctx context.Context, _ *rpcapi.ListNodesRequest) (*rpcapi.ListNodesResponse, error) {
	nodes, err := s.engine.ListNodes(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*rpcapi.SwarmNode, len(nodes))
	for i, n := range nodes {
		out[i] = toWireNode(n)
	}
	return &rpcapi.ListNodesResponse{Nodes: out}, nil
}

func toWireNode(n swarm.Node) *rpcapi.SwarmNode {
	return &rpcapi.SwarmNode{
		ID:           n.ID,
		Hostname:     n.Description.Hostname,
		Role:         string(n.Spec.Role),
		Availability: string(n.Spec.Availability),
		Labels:       n.Spec.Annotations.Labels,
	}
}
