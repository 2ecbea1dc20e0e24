package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SwarmService_IsSwarmManager_FullMethodName = "/rpcapi.SwarmService/IsSwarmManager"
	SwarmService_ListNodes_FullMethodName      = "/rpcapi.SwarmService/ListNodes"
)

// SwarmServiceServer is the server API for SwarmService, the Agent's
// Swarm-topology surface used by the Cluster gateway's Discovered agent
// source (spec §4.7).
type SwarmServiceServer interface {
	IsSwarmManager(context.Context, *IsSwarmManagerRequest) (*IsSwarmManagerResponse, error)
	ListNodes(context.Context, *ListNodesRequest) (*ListNodesResponse, error)
}

// UnimplementedSwarmServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedSwarmServiceServer struct{}

func (UnimplementedSwarmServiceServer) IsSwarmManager(context.Context, *IsSwarmManagerRequest) (*IsSwarmManagerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IsSwarmManager not implemented")
}

func (UnimplementedSwarmServiceServer) ListNodes(context.Context, *ListNodesRequest) (*ListNodesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListNodes not implemented")
}

// SwarmServiceClient is the client API for SwarmService.
type SwarmServiceClient interface {
	IsSwarmManager(ctx context.Context, in *IsSwarmManagerRequest, opts ...grpc.CallOption) (*IsSwarmManagerResponse, error)
	ListNodes(ctx context.Context, in *ListNodesRequest, opts ...grpc.CallOption) (*ListNodesResponse, error)
}

type swarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSwarmServiceClient builds a client bound to cc.
func NewSwarmServiceClient(cc grpc.ClientConnInterface) SwarmServiceClient {
	return &swarmServiceClient{cc}
}

func (c *swarmServiceClient) IsSwarmManager(ctx context.Context, in *IsSwarmManagerRequest, opts ...grpc.CallOption) (*IsSwarmManagerResponse, error) {
	out := new(IsSwarmManagerResponse)
	if err := c.cc.Invoke(ctx, SwarmService_IsSwarmManager_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *swarmServiceClient) ListNodes(ctx context.Context, in *ListNodesRequest, opts ...grpc.CallOption) (*ListNodesResponse, error) {
	out := new(ListNodesResponse)
	if err := c.cc.Invoke(ctx, SwarmService_ListNodes_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _SwarmService_IsSwarmManager_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(IsSwarmManagerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwarmServiceServer).IsSwarmManager(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SwarmService_IsSwarmManager_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SwarmServiceServer).IsSwarmManager(ctx, req.(*IsSwarmManagerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SwarmService_ListNodes_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListNodesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwarmServiceServer).ListNodes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SwarmService_ListNodes_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SwarmServiceServer).ListNodes(ctx, req.(*ListNodesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SwarmService_ServiceDesc is the grpc.ServiceDesc for SwarmService.
var SwarmService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.SwarmService",
	HandlerType: (*SwarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsSwarmManager", Handler: _SwarmService_IsSwarmManager_Handler},
		{MethodName: "ListNodes", Handler: _SwarmService_ListNodes_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/swarm_service.go",
}

// RegisterSwarmServiceServer registers srv on s.
func RegisterSwarmServiceServer(s grpc.ServiceRegistrar, srv SwarmServiceServer) {
	s.RegisterService(&SwarmService_ServiceDesc, srv)
}
