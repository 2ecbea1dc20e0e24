// Package rpcapi defines the wire contract between the Agent and the
// Cluster gateway: the request/response/event message shapes (§3, §6 of
// the design) and the gRPC services that carry them: the seven Agent
// services (InventoryService, LogService, StatsService, HealthService,
// ControlService, SwarmService, ShellService) plus the Cluster gateway's
// EnrollmentService.
//
// The service and stream plumbing below is written in the same shape
// protoc-gen-go-grpc produces -- ServiceDesc tables, generic
// streaming server/client wrappers (grpc.GenericServerStream /
// grpc.GenericClientStream) -- but the message types are plain Go
// structs with JSON tags rather than protoc-generated proto.Message
// implementations. This environment has no protobuf toolchain
// available to generate real .pb.go files, so the wire codec is a
// small JSON-over-gRPC codec registered under the name "proto",
// shadowing grpc's built-in protobuf codec. Every other piece of the
// transport -- TLS credentials, bidirectional streaming, status
// codes, deadlines -- is the real google.golang.org/grpc stack used
// exactly as the teacher's cluster server uses it.
package rpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "proto"

// jsonCodec marshals gRPC messages as JSON. Registering it under the name
// "proto" makes it the default codec for any call that doesn't explicitly
// request a content-subtype, which is how the hand-written service
// definitions below are invoked.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
