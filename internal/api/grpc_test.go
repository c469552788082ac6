package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startTestGRPCServer(t *testing.T, s kv.Store) (*GRPCClient, *grpc.ClientConn) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	logger := hclog.NewNullLogger()
	server := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogging(logger)))
	RegisterKVServer(server, NewGRPCServer(NewHandler(s, logger)))

	go func() {
		_ = server.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		server.Stop()
	})

	return NewGRPCClient(conn), conn
}

func TestGRPCSetGet(t *testing.T) {
	client, _ := startTestGRPCServer(t, store.NewMemStore())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Get(ctx, "a")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, client.Set(ctx, kv.KeyValue{Key: "a", Value: "1"}))
	require.NoError(t, client.Set(ctx, kv.KeyValue{Key: "a", Value: "2"}))

	pair, err := client.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, kv.KeyValue{Key: "a", Value: "2"}, pair)
}

func TestGRPCSetRejectsInvalidStruct(t *testing.T) {
	mem := store.NewMemStore()
	_, conn := startTestGRPCServer(t, mem)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cases := map[string]*structpb.Struct{
		"missing value": {Fields: map[string]*structpb.Value{
			"key": structpb.NewStringValue("x"),
		}},
		"number value": {Fields: map[string]*structpb.Value{
			"key":   structpb.NewStringValue("x"),
			"value": structpb.NewNumberValue(1),
		}},
		"missing key": {Fields: map[string]*structpb.Value{
			"value": structpb.NewStringValue("1"),
		}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			err := conn.Invoke(ctx, kvSetFullMethod, in, new(wrapperspb.StringValue))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	n, err := mem.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGRPCUnavailable(t *testing.T) {
	client, conn := startTestGRPCServer(t, failingStore{err: kv.ErrStoreUnavailable})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Invoke(ctx, kvGetFullMethod, wrapperspb.String("a"), new(structpb.Struct))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	err = client.Set(ctx, kv.KeyValue{Key: "a", Value: "1"})
	assert.ErrorIs(t, err, kv.ErrStoreUnavailable)
}
