package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	kvServiceName   = "pyazkv.KV"
	kvGetFullMethod = "/" + kvServiceName + "/Get"
	kvSetFullMethod = "/" + kvServiceName + "/Set"
)

// KVService is the gRPC surface of the store. Messages are protobuf
// well-known types so no generated code is needed:
//
//	Get(StringValue key) returns Struct{key, value}
//	Set(Struct{key, value}) returns StringValue("Success")
type KVService interface {
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Set(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

var kvServiceDesc = grpc.ServiceDesc{
	ServiceName: kvServiceName,
	HandlerType: (*KVService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: kvGetHandler},
		{MethodName: "Set", Handler: kvSetHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pyazkv/kv",
}

// RegisterKVServer registers srv on the given gRPC server.
func RegisterKVServer(s grpc.ServiceRegistrar, srv KVService) {
	s.RegisterService(&kvServiceDesc, srv)
}

func kvGetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KVService).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: kvGetFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KVService).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func kvSetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KVService).Set(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: kvSetFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KVService).Set(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer implements KVService on top of a Handler.
type GRPCServer struct {
	Handler *Handler
}

var _ KVService = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server with the given handler.
func NewGRPCServer(handler *Handler) *GRPCServer {
	return &GRPCServer{
		Handler: handler,
	}
}

// Get retrieves a value by key.
func (s *GRPCServer) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	pair, err := s.Handler.Get(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return keyValueToStruct(pair), nil
}

// Set stores a key-value pair.
func (s *GRPCServer) Set(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	pair, err := structToKeyValue(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.Handler.Set(pair); err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(SuccessBody), nil
}

func keyValueToStruct(pair kv.KeyValue) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":   structpb.NewStringValue(pair.Key),
		"value": structpb.NewStringValue(pair.Value),
	}}
}

func structToKeyValue(s *structpb.Struct) (kv.KeyValue, error) {
	key, ok := stringField(s, "key")
	if !ok {
		return kv.KeyValue{}, status.Error(codes.InvalidArgument, "key must be a string")
	}
	value, ok := stringField(s, "value")
	if !ok {
		return kv.KeyValue{}, status.Error(codes.InvalidArgument, "value must be a string")
	}
	return kv.KeyValue{Key: key, Value: value}, nil
}

func stringField(s *structpb.Struct, name string) (string, bool) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", false
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return sv.StringValue, true
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return status.Error(codes.NotFound, "key not found")
	case errors.Is(err, kv.ErrMalformedInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, kv.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryLogging logs one debug line per unary call.
func UnaryLogging(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// GRPCClient talks to a KVService.
type GRPCClient struct {
	cc grpc.ClientConnInterface
}

// NewGRPCClient wraps an established connection.
func NewGRPCClient(cc grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{cc: cc}
}

// Get returns kv.ErrNotFound when the key is absent and
// kv.ErrStoreUnavailable when the server's store is unusable.
func (c *GRPCClient) Get(ctx context.Context, key string) (kv.KeyValue, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, kvGetFullMethod, wrapperspb.String(key), out); err != nil {
		return kv.KeyValue{}, fromStatus(err)
	}
	pair, err := structToKeyValue(out)
	if err != nil {
		return kv.KeyValue{}, fmt.Errorf("decode get response: %w", err)
	}
	return pair, nil
}

// Set stores the pair on the server.
func (c *GRPCClient) Set(ctx context.Context, pair kv.KeyValue) error {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, kvSetFullMethod, keyValueToStruct(pair), out); err != nil {
		return fromStatus(err)
	}
	return nil
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return kv.ErrNotFound
	case codes.Unavailable:
		return fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %v", kv.ErrMalformedInput, err)
	default:
		return err
	}
}
