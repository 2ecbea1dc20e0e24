package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ControlService_ContainerAction_FullMethodName = "/rpcapi.ControlService/ContainerAction"
	ControlService_PullImage_FullMethodName       = "/rpcapi.ControlService/PullImage"
)

// ControlServiceServer is the server API for ControlService, the Agent's
// mutating container-lifecycle surface.
type ControlServiceServer interface {
	ContainerAction(context.Context, *ContainerActionRequest) (*ContainerActionResponse, error)
	PullImage(context.Context, *PullImageRequest) (*PullImageResponse, error)
}

// UnimplementedControlServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedControlServiceServer struct{}

func (UnimplementedControlServiceServer) ContainerAction(context.Context, *ContainerActionRequest) (*ContainerActionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ContainerAction not implemented")
}

func (UnimplementedControlServiceServer) PullImage(context.Context, *PullImageRequest) (*PullImageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PullImage not implemented")
}

// ControlServiceClient is the client API for ControlService.
type ControlServiceClient interface {
	ContainerAction(ctx context.Context, in *ContainerActionRequest, opts ...grpc.CallOption) (*ContainerActionResponse, error)
	PullImage(ctx context.Context, in *PullImageRequest, opts ...grpc.CallOption) (*PullImageResponse, error)
}

type controlServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewControlServiceClient builds a client bound to cc.
func NewControlServiceClient(cc grpc.ClientConnInterface) ControlServiceClient {
	return &controlServiceClient{cc}
}

func (c *controlServiceClient) ContainerAction(ctx context.Context, in *ContainerActionRequest, opts ...grpc.CallOption) (*ContainerActionResponse, error) {
	out := new(ContainerActionResponse)
	if err := c.cc.Invoke(ctx, ControlService_ContainerAction_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlServiceClient) PullImage(ctx context.Context, in *PullImageRequest, opts ...grpc.CallOption) (*PullImageResponse, error) {
	out := new(PullImageResponse)
	if err := c.cc.Invoke(ctx, ControlService_PullImage_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ControlService_ContainerAction_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ContainerActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServiceServer).ContainerAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ControlService_ContainerAction_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServiceServer).ContainerAction(ctx, req.(*ContainerActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ControlService_PullImage_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PullImageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServiceServer).PullImage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ControlService_PullImage_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServiceServer).PullImage(ctx, req.(*PullImageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlService_ServiceDesc is the grpc.ServiceDesc for ControlService.
var ControlService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.ControlService",
	HandlerType: (*ControlServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ContainerAction", Handler: _ControlService_ContainerAction_Handler},
		{MethodName: "PullImage", Handler: _ControlService_PullImage_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/control_service.go",
}

// RegisterControlServiceServer registers srv on s.
func RegisterControlServiceServer(s grpc.ServiceRegistrar, srv ControlServiceServer) {
	s.RegisterService(&ControlService_ServiceDesc, srv)
}
