package agentrpc

import (
	"context"

	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// Check delegates to the shared Health Evaluator (spec §4.8).
func (s *Server) Check(context.Context, *rpcapi.HealthCheckRequest) (*rpcapi.HealthCheckResponse, error) {
	return s.health.Check(), nil
}

// Watch ticks the same evaluator every five seconds until the stream's
// context is cancelled or Send fails.
func (s *Server) Watch(_ *rpcapi.HealthCheckRequest, stream rpcapi.HealthService_WatchServer) error {
	return s.health.Watch(stream.Context(), stream.Send)
}
