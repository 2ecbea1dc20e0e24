package agentrpc

import (
	"github.com/moby/moby/api/types/events"

	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// StreamLogs delegates to the Log Stream Core, emitting each LogResponse
// onto the gRPC stream in sequence order (spec §4.4).
func (s *Server) StreamLogs(req *rpcapi.StreamLogsRequest, stream rpcapi.LogService_StreamLogsServer) error {
	ml := &s.cfg.MultiLine
	err := s.logs.Run(stream.Context(), req, ml, func(resp *rpcapi.LogResponse) error {
		return stream.Send(resp)
	})
	return mapErr(err)
}

// StreamEvents subscribes to the Engine Adapter's event feed and converts
// each events.Message into the wire EngineEvent shape until the channel
// closes, the error channel fires, or the RPC's context is cancelled.
func (s *Server) StreamEvents(req *rpcapi.StreamEventsRequest, stream rpcapi.LogService_StreamEventsServer) error {
	ctx := stream.Context()

	opts := eventOptionsFromRequest(req)
	msgs, errs := s.engine.StreamEvents(ctx, opts)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return mapErr(err)
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := stream.Send(toWireEvent(msg)); err != nil {
				return err
			}
		}
	}
}

func eventOptionsFromRequest(req *rpcapi.StreamEventsRequest) docker.EventOptions {
	opts := docker.EventOptions{Types: req.Types}
	if req.Since != nil {
		opts.Since = *req.Since
	}
	if req.Until != nil {
		opts.Until = *req.Until
	}
	return opts
}

func toWireEvent(msg events.Message) *rpcapi.EngineEvent {
	return &rpcapi.EngineEvent{
		Type:            string(msg.Type),
		Action:          string(msg.Action),
		ActorID:         msg.Actor.ID,
		ActorAttributes: msg.Actor.Attributes,
		Timestamp:       msg.Time,
	}
}
