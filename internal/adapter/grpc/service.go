package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the trigger service
const ServiceName = "autotransfer.v1.AutoTransferService"

// AutoTransferServiceServer is the server API for the trigger service.
// Requests and responses are google.protobuf.Struct messages.
type AutoTransferServiceServer interface {
	// Execute runs all due schedules for {"user_id": "<uuid>"}
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Sweep runs all users with due schedules, optionally {"as_of": "<RFC 3339>"}
	Sweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAutoTransferServiceServer registers srv on s
func RegisterAutoTransferServiceServer(s grpc.ServiceRegistrar, srv AutoTransferServiceServer) {
	s.RegisterService(&AutoTransferServiceDesc, srv)
}

// AutoTransferServiceDesc describes the trigger service for grpc.Server
var AutoTransferServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AutoTransferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: unaryHandler("Execute", AutoTransferServiceServer.Execute)},
		{MethodName: "Sweep", Handler: unaryHandler("Sweep", AutoTransferServiceServer.Sweep)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autotransfer/v1/autotransfer.proto",
}

type unaryMethod func(AutoTransferServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(AutoTransferServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + name,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(AutoTransferServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the trigger service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Execute calls AutoTransferService.Execute
func (c *Client) Execute(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Execute", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Sweep calls AutoTransferService.Sweep
func (c *Client) Sweep(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Sweep", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
