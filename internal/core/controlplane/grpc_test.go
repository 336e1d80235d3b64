package controlplane

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// testServer 可重启的 bufconn 服务端
type testServer struct {
	srv *Server
	lis atomic.Pointer[bufconn.Listener]
	gs  *grpc.Server
}

func newTestServer(t *testing.T, reg *Registry) *testServer {
	t.Helper()
	ts := &testServer{srv: NewServer(reg)}
	ts.start()
	t.Cleanup(func() { ts.gs.Stop() })
	return ts
}

func (ts *testServer) start() {
	lis := bufconn.Listen(1 << 20)
	ts.lis.Store(lis)
	ts.gs = grpc.NewServer()
	RegisterServer(ts.gs, ts.srv)
	go func() { _ = ts.gs.Serve(lis) }()
}

func (ts *testServer) restart() {
	ts.gs.Stop()
	ts.start()
}

func (ts *testServer) source() *GRPCSource {
	cfg := config.DefaultControlPlaneConfig()
	cfg.Mode = config.ControlPlaneGRPC
	cfg.Address = "passthrough:///bufnet"
	cfg.ReconnectInitial = config.Duration(10 * time.Millisecond)
	cfg.ReconnectMax = config.Duration(50 * time.Millisecond)
	return NewGRPCSource(cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return ts.lis.Load().DialContext(ctx)
	}))
}

func TestGRPC_SnapshotDeltaAndResolve(t *testing.T) {
	ts := newTestServer(t, NewRegistry(testRecord("w1", "one", "10.0.0.1")))
	src := ts.source()
	ch := subscribe(t, src)

	u := next(t, ch)
	require.NotNil(t, u.Full)
	require.Len(t, u.Full.Records, 1)
	assert.Equal(t, "one", u.Full.Records[0].Peer.InstanceName)
	assert.True(t, src.Connected())

	ts.srv.Registry().Upsert(testRecord("w2", "two", "10.0.0.2"))
	u = next(t, ch)
	require.NotNil(t, u.Delta)
	assert.Equal(t, "w2", u.Delta.Added[0].UID)

	require.NoError(t, src.Resolve(context.Background(), netip.MustParseAddr("10.0.0.9")))
	u = next(t, ch)
	require.NotNil(t, u.Delta)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.9")}, u.Delta.Unresolved)
	assert.Equal(t, 0, src.Outstanding())

	require.NoError(t, src.Resolve(context.Background(), netip.MustParseAddr("10.0.0.1")))
	u = next(t, ch)
	require.NotNil(t, u.Delta)
	require.Len(t, u.Delta.Added, 1)
	assert.Equal(t, "w1", u.Delta.Added[0].UID)
}

func TestGRPC_ResolveBeforeConnect(t *testing.T) {
	ts := newTestServer(t, NewRegistry())
	src := ts.source()
	assert.ErrorIs(t, src.Resolve(context.Background(), netip.MustParseAddr("10.0.0.1")), ErrNotConnected)
}

func TestGRPC_Reconnects(t *testing.T) {
	ts := newTestServer(t, NewRegistry(testRecord("w1", "one", "10.0.0.1")))
	src := ts.source()
	ch := subscribe(t, src)

	u := next(t, ch)
	require.NotNil(t, u.Full)

	ts.srv.Registry().Upsert(testRecord("w2", "two", "10.0.0.2"))
	ts.restart()

	// 重连后重新收到全量
	require.Eventually(t, func() bool {
		select {
		case u := <-ch:
			return u.Full != nil && len(u.Full.Records) == 2
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGRPC_SubscribeStopsOnCancel(t *testing.T) {
	ts := newTestServer(t, NewRegistry())
	src := ts.source()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Subscribe(ctx, func(u types.Update) {}) }()

	require.Eventually(t, func() bool { return ts.srv.Streams() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscribe did not return")
	}
}
