package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	InventoryService_ListContainers_FullMethodName   = "/rpcapi.InventoryService/ListContainers"
	InventoryService_InspectContainer_FullMethodName = "/rpcapi.InventoryService/InspectContainer"
)

// InventoryServiceServer is the server API for InventoryService, the
// Agent-side RPC surface over the Inventory Store (spec §4.2).
type InventoryServiceServer interface {
	ListContainers(context.Context, *ListContainersRequest) (*ListContainersResponse, error)
	InspectContainer(context.Context, *InspectContainerRequest) (*InspectContainerResponse, error)
}

// UnimplementedInventoryServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedInventoryServiceServer struct{}

func (UnimplementedInventoryServiceServer) ListContainers(context.Context, *ListContainersRequest) (*ListContainersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListContainers not implemented")
}

func (UnimplementedInventoryServiceServer) InspectContainer(context.Context, *InspectContainerRequest) (*InspectContainerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InspectContainer not implemented")
}

// InventoryServiceClient is the client API for InventoryService.
type InventoryServiceClient interface {
	ListContainers(ctx context.Context, in *ListContainersRequest, opts ...grpc.CallOption) (*ListContainersResponse, error)
	InspectContainer(ctx context.Context, in *InspectContainerRequest, opts ...grpc.CallOption) (*InspectContainerResponse, error)
}

type inventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewInventoryServiceClient builds a client bound to cc.
func NewInventoryServiceClient(cc grpc.ClientConnInterface) InventoryServiceClient {
	return &inventoryServiceClient{cc}
}

func (c *inventoryServiceClient) ListContainers(ctx context.Context, in *ListContainersRequest, opts ...grpc.CallOption) (*ListContainersResponse, error) {
	out := new(ListContainersResponse)
	if err := c.cc.Invoke(ctx, InventoryService_ListContainers_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) InspectContainer(ctx context.Context, in *InspectContainerRequest, opts ...grpc.CallOption) (*InspectContainerResponse, error) {
	out := new(InspectContainerResponse)
	if err := c.cc.Invoke(ctx, InventoryService_InspectContainer_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _InventoryService_ListContainers_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListContainersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).ListContainers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InventoryService_ListContainers_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).ListContainers(ctx, req.(*ListContainersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _InventoryService_InspectContainer_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InspectContainerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).InspectContainer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InventoryService_InspectContainer_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).InspectContainer(ctx, req.(*InspectContainerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InventoryService_ServiceDesc is the grpc.ServiceDesc for InventoryService.
var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.InventoryService",
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListContainers", Handler: _InventoryService_ListContainers_Handler},
		{MethodName: "InspectContainer", Handler: _InventoryService_InspectContainer_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/inventory_service.go",
}

// RegisterInventoryServiceServer registers srv on s.
func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}
