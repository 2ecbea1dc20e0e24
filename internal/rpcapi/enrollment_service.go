package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rosshhun/docktail-go/internal/cluster"
)

const EnrollmentService_Enroll_FullMethodName = "/rpcapi.EnrollmentService/Enroll"

// EnrollmentServiceServer is the server API for EnrollmentService: the one
// RPC an agent calls over an unauthenticated bootstrap TLS connection,
// before it holds a signed client certificate.
type EnrollmentServiceServer interface {
	Enroll(context.Context, *cluster.EnrollRequest) (*cluster.EnrollResponse, error)
}

// UnimplementedEnrollmentServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedEnrollmentServiceServer struct{}

func (UnimplementedEnrollmentServiceServer) Enroll(context.Context, *cluster.EnrollRequest) (*cluster.EnrollResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Enroll not implemented")
}

// EnrollmentServiceClient is the client API for EnrollmentService.
type EnrollmentServiceClient interface {
	Enroll(ctx context.Context, in *cluster.EnrollRequest, opts ...grpc.CallOption) (*cluster.EnrollResponse, error)
}

type enrollmentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEnrollmentServiceClient builds a client bound to cc.
func NewEnrollmentServiceClient(cc grpc.ClientConnInterface) EnrollmentServiceClient {
	return &enrollmentServiceClient{cc}
}

func (c *enrollmentServiceClient) Enroll(ctx context.Context, in *cluster.EnrollRequest, opts ...grpc.CallOption) (*cluster.EnrollResponse, error) {
	out := new(cluster.EnrollResponse)
	if err := c.cc.Invoke(ctx, EnrollmentService_Enroll_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _EnrollmentService_Enroll_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(cluster.EnrollRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnrollmentServiceServer).Enroll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EnrollmentService_Enroll_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EnrollmentServiceServer).Enroll(ctx, req.(*cluster.EnrollRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// EnrollmentService_ServiceDesc is the grpc.ServiceDesc for EnrollmentService.
var EnrollmentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.EnrollmentService",
	HandlerType: (*EnrollmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enroll", Handler: _EnrollmentService_Enroll_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/enrollment_service.go",
}

// RegisterEnrollmentServiceServer registers srv on s.
func RegisterEnrollmentServiceServer(s grpc.ServiceRegistrar, srv EnrollmentServiceServer) {
	s.RegisterService(&EnrollmentService_ServiceDesc, srv)
}
