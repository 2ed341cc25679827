package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/logger"
)

// Messages on every service are google.protobuf.Struct, so the service
// descriptors are assembled here instead of generated.

type unaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

type method struct {
	name string
	fn   unaryFunc
}

// Handler is implemented by every service handler in this package.
type Handler interface {
	ServiceDesc() *grpc.ServiceDesc
}

// Register adds the handlers' services to the server.
func Register(s grpc.ServiceRegistrar, handlers ...Handler) {
	for _, h := range handlers {
		desc := h.ServiceDesc()
		s.RegisterService(desc, h)
		logger.Info("Registered gRPC service", "service", desc.ServiceName, "methods", len(desc.Methods))
	}
}

func serviceDesc(service string, methods ...method) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "rentchain/v1/" + service,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    methodHandler("/"+service+"/"+m.name, m.fn),
		})
	}
	return desc
}

func methodHandler(fullMethod string, fn unaryFunc) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	call := func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, toStatus(err)
		}
		return resp, nil
	}
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
