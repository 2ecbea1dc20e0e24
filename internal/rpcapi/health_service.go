package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	HealthService_Check_FullMethodName = "/rpcapi.HealthService/Check"
	HealthService_Watch_FullMethodName = "/rpcapi.HealthService/Watch"
)

// HealthService_WatchServer is the send-only server view of the health
// watch stream.
type HealthService_WatchServer = grpc.ServerStreamingServer[HealthCheckResponse]

// HealthServiceServer is the server API for HealthService, the Agent's
// self-assessment surface (spec §4.8): one-shot Check and a 5-second-tick
// Watch stream sharing the same evaluation ladder.
type HealthServiceServer interface {
	Check(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
	Watch(*HealthCheckRequest, HealthService_WatchServer) error
}

// UnimplementedHealthServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedHealthServiceServer struct{}

func (UnimplementedHealthServiceServer) Check(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Check not implemented")
}

func (UnimplementedHealthServiceServer) Watch(*HealthCheckRequest, HealthService_WatchServer) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}

// HealthService_WatchClient is the client-side receive view of the health
// watch stream.
type HealthService_WatchClient = grpc.ServerStreamingClient[HealthCheckResponse]

// HealthServiceClient is the client API for HealthService.
type HealthServiceClient interface {
	Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
	Watch(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (HealthService_WatchClient, error)
}

type healthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewHealthServiceClient builds a client bound to cc.
func NewHealthServiceClient(cc grpc.ClientConnInterface) HealthServiceClient {
	return &healthServiceClient{cc}
}

func (c *healthServiceClient) Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	if err := c.cc.Invoke(ctx, HealthService_Check_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *healthServiceClient) Watch(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (HealthService_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &HealthService_ServiceDesc.Streams[0], HealthService_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[HealthCheckRequest, HealthCheckResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func _HealthService_Check_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HealthServiceServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthService_Check_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HealthServiceServer).Check(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HealthService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(HealthCheckRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HealthServiceServer).Watch(m, &grpc.GenericServerStream[HealthCheckRequest, HealthCheckResponse]{ServerStream: stream})
}

// HealthService_ServiceDesc is the grpc.ServiceDesc for HealthService.
var HealthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.HealthService",
	HandlerType: (*HealthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: _HealthService_Check_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: _HealthService_Watch_Handler, ServerStreams: true},
	},
	Metadata: "rpcapi/health_service.go",
}

// RegisterHealthServiceServer registers srv on s.
func RegisterHealthServiceServer(s grpc.ServiceRegistrar, srv HealthServiceServer) {
	s.RegisterService(&HealthService_ServiceDesc, srv)
}
