package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LogService_StreamLogs_FullMethodName   = "/rpcapi.LogService/StreamLogs"
	LogService_StreamEvents_FullMethodName = "/rpcapi.LogService/StreamEvents"
)

// LogService_StreamLogsServer and LogService_StreamEventsServer are the
// server-streaming send-only views handlers get, shaped exactly like
// protoc-gen-go-grpc's generic server-streaming alias.
type LogService_StreamLogsServer = grpc.ServerStreamingServer[LogResponse]
type LogService_StreamEventsServer = grpc.ServerStreamingServer[EngineEvent]

// LogServiceServer is the server API for LogService, the Agent-side log
// and engine-event feed (spec §4.4).
type LogServiceServer interface {
	StreamLogs(*StreamLogsRequest, LogService_StreamLogsServer) error
	StreamEvents(*StreamEventsRequest, LogService_StreamEventsServer) error
}

// UnimplementedLogServiceServer can be embedded to have forward compatible
// implementations.
type UnimplementedLogServiceServer struct{}

func (UnimplementedLogServiceServer) StreamLogs(*StreamLogsRequest, LogService_StreamLogsServer) error {
	return status.Error(codes.Unimplemented, "method StreamLogs not implemented")
}

func (UnimplementedLogServiceServer) StreamEvents(*StreamEventsRequest, LogService_StreamEventsServer) error {
	return status.Error(codes.Unimplemented, "method StreamEvents not implemented")
}

// LogService_StreamLogsClient and LogService_StreamEventsClient are the
// client-side receive views of the two streams.
type LogService_StreamLogsClient = grpc.ServerStreamingClient[LogResponse]
type LogService_StreamEventsClient = grpc.ServerStreamingClient[EngineEvent]

// LogServiceClient is the client API for LogService.
type LogServiceClient interface {
	StreamLogs(ctx context.Context, in *StreamLogsRequest, opts ...grpc.CallOption) (LogService_StreamLogsClient, error)
	StreamEvents(ctx context.Context, in *StreamEventsRequest, opts ...grpc.CallOption) (LogService_StreamEventsClient, error)
}

type logServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLogServiceClient builds a client bound to cc.
func NewLogServiceClient(cc grpc.ClientConnInterface) LogServiceClient {
	return &logServiceClient{cc}
}

func (c *logServiceClient) StreamLogs(ctx context.Context, in *StreamLogsRequest, opts ...grpc.CallOption) (LogService_StreamLogsClient, error) {
	stream, err := c.cc.NewStream(ctx, &LogService_ServiceDesc.Streams[0], LogService_StreamLogs_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamLogsRequest, LogResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *logServiceClient) StreamEvents(ctx context.Context, in *StreamEventsRequest, opts ...grpc.CallOption) (LogService_StreamEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &LogService_ServiceDesc.Streams[1], LogService_StreamEvents_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamEventsRequest, EngineEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func _LogService_StreamLogs_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamLogsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LogServiceServer).StreamLogs(m, &grpc.GenericServerStream[StreamLogsRequest, LogResponse]{ServerStream: stream})
}

func _LogService_StreamEvents_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamEventsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LogServiceServer).StreamEvents(m, &grpc.GenericServerStream[StreamEventsRequest, EngineEvent]{ServerStream: stream})
}

// LogService_ServiceDesc is the grpc.ServiceDesc for LogService.
var LogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.LogService",
	HandlerType: (*LogServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamLogs", Handler: _LogService_StreamLogs_Handler, ServerStreams: true},
		{StreamName: "StreamEvents", Handler: _LogService_StreamEvents_Handler, ServerStreams: true},
	},
	Metadata: "rpcapi/log_service.go",
}

// RegisterLogServiceServer registers srv on s.
func RegisterLogServiceServer(s grpc.ServiceRegistrar, srv LogServiceServer) {
	s.RegisterService(&LogService_ServiceDesc, srv)
}
