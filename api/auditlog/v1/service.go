// Package auditlogv1 defines the auditlog.v1.AuditLog gRPC service. Every
// message is a google.protobuf.Struct; messages.go holds the typed views.
package auditlogv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "auditlog.v1.AuditLog"

const (
	SaveMethod     = "/" + ServiceName + "/Save"
	RetrieveMethod = "/" + ServiceName + "/Retrieve"
	OwnerMethod    = "/" + ServiceName + "/Owner"
	PeriodsMethod  = "/" + ServiceName + "/Periods"
	WatchMethod    = "/" + ServiceName + "/Watch"
)

// AuditLogServer is the server API for the AuditLog service.
type AuditLogServer interface {
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Retrieve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Owner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Periods(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*structpb.Struct, AuditLog_WatchServer) error
}

// UnimplementedAuditLogServer can be embedded for forward compatibility.
type UnimplementedAuditLogServer struct{}

func (UnimplementedAuditLogServer) Save(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Save not implemented")
}
func (UnimplementedAuditLogServer) Retrieve(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Retrieve not implemented")
}
func (UnimplementedAuditLogServer) Owner(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Owner not implemented")
}
func (UnimplementedAuditLogServer) Periods(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Periods not implemented")
}
func (UnimplementedAuditLogServer) Watch(*structpb.Struct, AuditLog_WatchServer) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}

// AuditLog_WatchServer is the server side of the Watch stream.
type AuditLog_WatchServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type auditLogWatchServer struct{ grpc.ServerStream }

func (x *auditLogWatchServer) Send(m *structpb.Struct) error { return x.ServerStream.SendMsg(m) }

func RegisterAuditLogServer(s grpc.ServiceRegistrar, srv AuditLogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts one AuditLogServer method into a grpc method handler.
func unary(fullMethod string, call func(AuditLogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuditLogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AuditLogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(AuditLogServer).Watch(m, &auditLogWatchServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc for the AuditLog service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuditLogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Save", Handler: unary(SaveMethod, AuditLogServer.Save)},
		{MethodName: "Retrieve", Handler: unary(RetrieveMethod, AuditLogServer.Retrieve)},
		{MethodName: "Owner", Handler: unary(OwnerMethod, AuditLogServer.Owner)},
		{MethodName: "Periods", Handler: unary(PeriodsMethod, AuditLogServer.Periods)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "auditlog/v1/auditlog.proto",
}

// AuditLogClient is the client API for the AuditLog service.
type AuditLogClient interface {
	Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Retrieve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Owner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Periods(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Watch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (AuditLog_WatchClient, error)
}

type auditLogClient struct {
	cc grpc.ClientConnInterface
}

func NewAuditLogClient(cc grpc.ClientConnInterface) AuditLogClient {
	return &auditLogClient{cc}
}

func (c *auditLogClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *auditLogClient) Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SaveMethod, in, opts)
}

func (c *auditLogClient) Retrieve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, RetrieveMethod, in, opts)
}

func (c *auditLogClient) Owner(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, OwnerMethod, in, opts)
}

func (c *auditLogClient) Periods(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PeriodsMethod, in, opts)
}

func (c *auditLogClient) Watch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (AuditLog_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &auditLogWatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// AuditLog_WatchClient is the client side of the Watch stream.
type AuditLog_WatchClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type auditLogWatchClient struct{ grpc.ClientStream }

func (x *auditLogWatchClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
