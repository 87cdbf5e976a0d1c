package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "datasworn.id.v1.IdService"

const (
	methodParseID     = "/" + ServiceName + "/ParseId"
	methodResolveID   = "/" + ServiceName + "/ResolveId"
	methodMigrateID   = "/" + ServiceName + "/MigrateId"
	methodMigrateText = "/" + ServiceName + "/MigrateText"
)

// IdServiceServer is the server API for the ID service. Messages are
// protobuf well-known types, so no generated code is needed.
type IdServiceServer interface {
	ParseId(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ResolveId(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	MigrateId(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MigrateText(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// RegisterIdServiceServer registers srv with s.
func RegisterIdServiceServer(s grpc.ServiceRegistrar, srv IdServiceServer) {
	s.RegisterService(&IdServiceDesc, srv)
}

// IdServiceDesc describes the ID service for grpc.Server.
var IdServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ParseId", Handler: unaryHandler(methodParseID, IdServiceServer.ParseId)},
		{MethodName: "ResolveId", Handler: unaryHandler(methodResolveID, IdServiceServer.ResolveId)},
		{MethodName: "MigrateId", Handler: unaryHandler(methodMigrateID, IdServiceServer.MigrateId)},
		{MethodName: "MigrateText", Handler: unaryHandler(methodMigrateText, IdServiceServer.MigrateText)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "datasworn/id/v1/id.proto",
}

// unaryHandler adapts a typed method to grpc.MethodDesc's handler signature.
func unaryHandler[Req any, Resp any, PReq interface {
	*Req
}](fullMethod string, call func(IdServiceServer, context.Context, PReq) (Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(IdServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IdServiceClient calls the ID service.
type IdServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewIdServiceClient creates a client over cc.
func NewIdServiceClient(cc grpc.ClientConnInterface) *IdServiceClient {
	return &IdServiceClient{cc: cc}
}

// ParseId parses an ID without resolving it.
func (c *IdServiceClient) ParseId(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodParseID, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveId resolves an ID against the server's content.
func (c *IdServiceClient) ResolveId(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodResolveID, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MigrateId migrates one legacy ID.
func (c *IdServiceClient) MigrateId(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodMigrateID, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MigrateText migrates the legacy IDs referenced by a string.
func (c *IdServiceClient) MigrateText(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodMigrateText, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
