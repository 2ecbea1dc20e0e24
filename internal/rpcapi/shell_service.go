package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ShellService_ExecCreate_FullMethodName  = "/rpcapi.ShellService/ExecCreate"
	ShellService_ExecInspect_FullMethodName = "/rpcapi.ShellService/ExecInspect"
	ShellService_OpenShell_FullMethodName   = "/rpcapi.ShellService/OpenShell"
)

// ShellService_OpenShellServer is the bidirectional server view of an open
// shell session (spec §4.5): the agent reads ShellClientFrame (init/input/
// resize) and writes ShellServerFrame (output/exit/error).
type ShellService_OpenShellServer = grpc.BidiStreamingServer[ShellClientFrame, ShellServerFrame]

// ShellServiceServer is the server API for ShellService.
type ShellServiceServer interface {
	ExecCreate(context.Context, *ExecCreateRequest) (*ExecCreateResponse, error)
	ExecInspect(context.Context, *ExecInspectRequest) (*ExecInspectResponse, error)
	OpenShell(ShellService_OpenShellServer) error
}

// UnimplementedShellServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedShellServiceServer struct{}

func (UnimplementedShellServiceServer) ExecCreate(context.Context, *ExecCreateRequest) (*ExecCreateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExecCreate not implemented")
}

func (UnimplementedShellServiceServer) ExecInspect(context.Context, *ExecInspectRequest) (*ExecInspectResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExecInspect not implemented")
}

func (UnimplementedShellServiceServer) OpenShell(ShellService_OpenShellServer) error {
	return status.Error(codes.Unimplemented, "method OpenShell not implemented")
}

// ShellService_OpenShellClient is the bidirectional client view of an open
// shell session.
type ShellService_OpenShellClient = grpc.BidiStreamingClient[ShellClientFrame, ShellServerFrame]

// ShellServiceClient is the client API for ShellService.
type ShellServiceClient interface {
	ExecCreate(ctx context.Context, in *ExecCreateRequest, opts ...grpc.CallOption) (*ExecCreateResponse, error)
	ExecInspect(ctx context.Context, in *ExecInspectRequest, opts ...grpc.CallOption) (*ExecInspectResponse, error)
	OpenShell(ctx context.Context, opts ...grpc.CallOption) (ShellService_OpenShellClient, error)
}

type shellServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewShellServiceClient builds a client bound to cc.
func NewShellServiceClient(cc grpc.ClientConnInterface) ShellServiceClient {
	return &shellServiceClient{cc}
}

func (c *shellServiceClient) ExecCreate(ctx context.Context, in *ExecCreateRequest, opts ...grpc.CallOption) (*ExecCreateResponse, error) {
	out := new(ExecCreateResponse)
	if err := c.cc.Invoke(ctx, ShellService_ExecCreate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shellServiceClient) ExecInspect(ctx context.Context, in *ExecInspectRequest, opts ...grpc.CallOption) (*ExecInspectResponse, error) {
	out := new(ExecInspectResponse)
	if err := c.cc.Invoke(ctx, ShellService_ExecInspect_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shellServiceClient) OpenShell(ctx context.Context, opts ...grpc.CallOption) (ShellService_OpenShellClient, error) {
	stream, err := c.cc.NewStream(ctx, &ShellService_ServiceDesc.Streams[0], ShellService_OpenShell_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[ShellClientFrame, ShellServerFrame]{ClientStream: stream}, nil
}

func _ShellService_ExecCreate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecCreateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShellServiceServer).ExecCreate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ShellService_ExecCreate_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShellServiceServer).ExecCreate(ctx, req.(*ExecCreateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShellService_ExecInspect_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecInspectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShellServiceServer).ExecInspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ShellService_ExecInspect_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShellServiceServer).ExecInspect(ctx, req.(*ExecInspectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShellService_OpenShell_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(ShellServiceServer).OpenShell(&grpc.GenericServerStream[ShellClientFrame, ShellServerFrame]{ServerStream: stream})
}

// ShellService_ServiceDesc is the grpc.ServiceDesc for ShellService.
var ShellService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.ShellService",
	HandlerType: (*ShellServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExecCreate", Handler: _ShellService_ExecCreate_Handler},
		{MethodName: "ExecInspect", Handler: _ShellService_ExecInspect_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "OpenShell", Handler: _ShellService_OpenShell_Handler, ServerStreams: true, ClientStreams: true},
	},
	Metadata: "rpcapi/shell_service.go",
}

// RegisterShellServiceServer registers srv on s.
func RegisterShellServiceServer(s grpc.ServiceRegistrar, srv ShellServiceServer) {
	s.RegisterService(&ShellService_ServiceDesc, srv)
}
