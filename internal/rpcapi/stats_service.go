package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const StatsService_StreamStats_FullMethodName = "/rpcapi.StatsService/StreamStats"

// StatsService_StreamStatsServer is the send-only server view of the
// stats stream.
type StatsService_StreamStatsServer = grpc.ServerStreamingServer[StatsFrame]

// StatsServiceServer is the server API for StatsService (spec §4.1 stats
// streaming).
type StatsServiceServer interface {
	StreamStats(*StreamStatsRequest, StatsService_StreamStatsServer) error
}

// UnimplementedStatsServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedStatsServiceServer struct{}

func (UnimplementedStatsServiceServer) StreamStats(*StreamStatsRequest, StatsService_StreamStatsServer) error {
	return status.Error(codes.Unimplemented, "method StreamStats not implemented")
}

// StatsService_StreamStatsClient is the client-side receive view of the
// stats stream.
type StatsService_StreamStatsClient = grpc.ServerStreamingClient[StatsFrame]

// StatsServiceClient is the client API for StatsService.
type StatsServiceClient interface {
	StreamStats(ctx context.Context, in *StreamStatsRequest, opts ...grpc.CallOption) (StatsService_StreamStatsClient, error)
}

type statsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStatsServiceClient builds a client bound to cc.
func NewStatsServiceClient(cc grpc.ClientConnInterface) StatsServiceClient {
	return &statsServiceClient{cc}
}

func (c *statsServiceClient) StreamStats(ctx context.Context, in *StreamStatsRequest, opts ...grpc.CallOption) (StatsService_StreamStatsClient, error) {
	stream, err := c.cc.NewStream(ctx, &StatsService_ServiceDesc.Streams[0], StatsService_StreamStats_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamStatsRequest, StatsFrame]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func _StatsService_StreamStats_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamStatsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StatsServiceServer).StreamStats(m, &grpc.GenericServerStream[StreamStatsRequest, StatsFrame]{ServerStream: stream})
}

// StatsService_ServiceDesc is the grpc.ServiceDesc for StatsService.
var StatsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.StatsService",
	HandlerType: (*StatsServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamStats", Handler: _StatsService_StreamStats_Handler, ServerStreams: true},
	},
	Metadata: "rpcapi/stats_service.go",
}

// RegisterStatsServiceServer registers srv on s.
func RegisterStatsServiceServer(s grpc.ServiceRegistrar, srv StatsServiceServer) {
	s.RegisterService(&StatsService_ServiceDesc, srv)
}
