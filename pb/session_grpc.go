// Package pb describes the tetris.SessionService gRPC service. Messages are
// protobuf well-known types: ids travel as StringValue and game snapshots as
// Struct (see snapshot.go for the layout).
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	SessionService_NewSession_FullMethodName   = "/tetris.SessionService/NewSession"
	SessionService_Command_FullMethodName      = "/tetris.SessionService/Command"
	SessionService_Snapshot_FullMethodName     = "/tetris.SessionService/Snapshot"
	SessionService_Watch_FullMethodName        = "/tetris.SessionService/Watch"
	SessionService_CloseSession_FullMethodName = "/tetris.SessionService/CloseSession"
)

type SessionServiceClient interface {
	// NewSession starts a game and returns its id.
	NewSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	// Command applies an action (see NewCommand) and returns the resulting snapshot.
	Command(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Snapshot(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Watch streams a snapshot after every change until the game is over or closed.
	Watch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
	CloseSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc}
}

func (c *sessionServiceClient) NewSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, SessionService_NewSession_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) Command(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SessionService_Command_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) Snapshot(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SessionService_Snapshot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) Watch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &SessionService_ServiceDesc.Streams[0], SessionService_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *sessionServiceClient) CloseSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SessionService_CloseSession_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type SessionServiceServer interface {
	NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Command(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Watch(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error
	CloseSession(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// UnimplementedSessionServiceServer must be embedded by implementations so
// new methods don't break them.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method NewSession not implemented")
}
func (UnimplementedSessionServiceServer) Command(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Command not implemented")
}
func (UnimplementedSessionServiceServer) Snapshot(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Snapshot not implemented")
}
func (UnimplementedSessionServiceServer) Watch(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Errorf(codes.Unimplemented, "method Watch not implemented")
}
func (UnimplementedSessionServiceServer) CloseSession(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CloseSession not implemented")
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

func _SessionService_NewSession_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).NewSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_NewSession_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).NewSession(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_Command_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Command(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_Command_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).Command(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_Snapshot_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_Snapshot_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).Snapshot(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SessionServiceServer).Watch(m, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}

func _SessionService_CloseSession_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).CloseSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_CloseSession_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).CloseSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tetris.SessionService",
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NewSession", Handler: _SessionService_NewSession_Handler},
		{MethodName: "Command", Handler: _SessionService_Command_Handler},
		{MethodName: "Snapshot", Handler: _SessionService_Snapshot_Handler},
		{MethodName: "CloseSession", Handler: _SessionService_CloseSession_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _SessionService_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "pb/session.proto",
}
