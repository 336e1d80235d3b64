package peercache

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
	"github.com/dep2p/go-peermeta/tests/mocks"
)

func newTestCache(t *testing.T, cfg config.CacheConfig, source pkgif.ControlPlaneSource, rec pkgif.MetricsRecorder) *Cache {
	t.Helper()
	c, err := New(cfg, source, rec)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

func testConfig(workers int) config.CacheConfig {
	cfg := config.DefaultCacheConfig()
	cfg.Workers = workers
	return cfg
}

func record(uid, name string, addrs ...string) types.WorkloadRecord {
	r := types.WorkloadRecord{
		UID:  uid,
		Peer: &types.PeerIdentity{InstanceName: name, WorkloadName: name, NamespaceName: "default"},
	}
	for _, a := range addrs {
		r.Addresses = append(r.Addresses, netip.MustParseAddr(a))
	}
	return r
}

func lookup(t *testing.T, c *Cache, shard int, addr string) *types.PeerIdentity {
	t.Helper()
	var got *types.PeerIdentity
	require.NoError(t, c.Do(context.Background(), shard, func(s *Shard) {
		got = s.GetMetadata(netip.MustParseAddr(addr))
	}))
	return got
}

func waitApplied(t *testing.T, c *Cache) {
	t.Helper()
	require.NoError(t, c.Sync(context.Background()))
}

// fetchLog 记录回调顺序
type fetchLog struct {
	mu    sync.Mutex
	calls []string
}

func (f *fetchLog) cb(tag string) pkgif.FetchCallback {
	return func(p *types.PeerIdentity) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := "<nil>"
		if p != nil {
			name = p.InstanceName
		}
		f.calls = append(f.calls, tag+":"+name)
	}
}

func (f *fetchLog) get() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func fetch(t *testing.T, c *Cache, shard int, addr string, cb pkgif.FetchCallback) {
	t.Helper()
	require.NoError(t, c.Do(context.Background(), shard, func(s *Shard) {
		s.Fetch(netip.MustParseAddr(addr), cb)
	}))
}

func TestCache_IncrementalUpdates(t *testing.T) {
	c := newTestCache(t, testConfig(2), nil, nil)

	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{record("r1", "one", "10.0.0.5")}}})
	waitApplied(t, c)
	for i := 0; i < c.Shards(); i++ {
		got := lookup(t, c, i, "10.0.0.5")
		require.NotNil(t, got)
		assert.Equal(t, "one", got.InstanceName)
	}

	c.Apply(types.Update{Delta: &types.Delta{RemovedIDs: []string{"r1"}}})
	waitApplied(t, c)
	for i := 0; i < c.Shards(); i++ {
		assert.Nil(t, lookup(t, c, i, "10.0.0.5"))
	}

	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r2", "two", "10.0.0.5")}}})
	waitApplied(t, c)
	for i := 0; i < c.Shards(); i++ {
		got := lookup(t, c, i, "10.0.0.5")
		require.NotNil(t, got)
		assert.Equal(t, "two", got.InstanceName)
	}
}

func TestCache_SnapshotReplaces(t *testing.T) {
	c := newTestCache(t, testConfig(1), nil, nil)

	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{
		record("r1", "one", "10.0.0.1"),
		record("r2", "two", "10.0.0.2"),
	}}})
	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{
		record("r3", "three", "10.0.0.2"),
	}}})
	waitApplied(t, c)

	assert.Nil(t, lookup(t, c, 0, "10.0.0.1"))
	got := lookup(t, c, 0, "10.0.0.2")
	require.NotNil(t, got)
	assert.Equal(t, "three", got.InstanceName)
	assert.EqualValues(t, 2, c.Stats().Snapshots)
}

func TestCache_RemovalKeepsReassignedAddress(t *testing.T) {
	c := newTestCache(t, testConfig(1), nil, nil)

	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{record("r1", "one", "10.0.0.1")}}})
	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r2", "two", "10.0.0.1")}}})
	c.Apply(types.Update{Delta: &types.Delta{RemovedIDs: []string{"r1"}}})
	waitApplied(t, c)

	got := lookup(t, c, 0, "10.0.0.1")
	require.NotNil(t, got)
	assert.Equal(t, "two", got.InstanceName)
}

func TestCache_ReplaceRecordDropsOldAddresses(t *testing.T) {
	c := newTestCache(t, testConfig(1), nil, nil)

	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r1", "one", "10.0.0.1", "10.0.0.2")}}})
	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r1", "one", "10.0.0.3")}}})
	waitApplied(t, c)

	assert.Nil(t, lookup(t, c, 0, "10.0.0.1"))
	assert.Nil(t, lookup(t, c, 0, "10.0.0.2"))
	assert.NotNil(t, lookup(t, c, 0, "10.0.0.3"))
}

func TestCache_IPv4MappedLookup(t *testing.T) {
	c := newTestCache(t, testConfig(1), nil, nil)

	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{record("r1", "one", "10.0.0.1")}}})
	waitApplied(t, c)

	assert.NotNil(t, lookup(t, c, 0, "::ffff:10.0.0.1"))
}

func TestCache_FetchCallbacksInOrder(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	rec := mocks.NewMockRecorder()
	c := newTestCache(t, testConfig(2), src, rec)

	var log fetchLog
	fetch(t, c, 0, "10.0.0.9", log.cb("a"))
	fetch(t, c, 0, "10.0.0.9", log.cb("b"))
	fetch(t, c, 1, "10.0.0.9", log.cb("c"))
	waitApplied(t, c)

	assert.Empty(t, log.get())
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.9")}, src.Resolved())
	assert.Equal(t, 1, c.Stats().Inflight)

	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r9", "nine", "10.0.0.9")}}})
	waitApplied(t, c)

	calls := log.get()
	require.Len(t, calls, 3)
	assert.ElementsMatch(t, []string{"a:nine", "b:nine", "c:nine"}, calls)
	assert.Less(t, slices.Index(calls, "a:nine"), slices.Index(calls, "b:nine"))
	assert.Equal(t, 0, c.Stats().Inflight)
	assert.Equal(t, 1, rec.Count("resolve/sent"))
	assert.Equal(t, 3, rec.Count("cache/miss"))

	// 命中后同步回调
	fetch(t, c, 0, "10.0.0.9", log.cb("d"))
	assert.Equal(t, "d:nine", log.get()[3])
}

func TestCache_UnresolvedIsKnownAbsent(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	c := newTestCache(t, testConfig(1), src, nil)

	var log fetchLog
	fetch(t, c, 0, "10.0.0.7", log.cb("a"))
	waitApplied(t, c)

	c.Apply(types.Update{Delta: &types.Delta{Unresolved: []netip.Addr{netip.MustParseAddr("10.0.0.7")}}})
	waitApplied(t, c)
	assert.Equal(t, []string{"a:<nil>"}, log.get())

	// 已确认不存在，不再请求控制面
	fetch(t, c, 0, "10.0.0.7", log.cb("b"))
	waitApplied(t, c)
	assert.Equal(t, []string{"a:<nil>", "b:<nil>"}, log.get())
	assert.Len(t, src.Resolved(), 1)

	// 后续新增覆盖不存在标记
	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r7", "seven", "10.0.0.7")}}})
	waitApplied(t, c)
	assert.NotNil(t, lookup(t, c, 0, "10.0.0.7"))
}

func TestCache_NoSourceAnswersAbsent(t *testing.T) {
	rec := mocks.NewMockRecorder()
	c := newTestCache(t, testConfig(1), nil, rec)

	var log fetchLog
	fetch(t, c, 0, "10.0.0.8", log.cb("a"))
	waitApplied(t, c)

	assert.Equal(t, []string{"a:<nil>"}, log.get())
	assert.Equal(t, 1, rec.Count("resolve/local"))
}

func TestCache_ResolveThrottled(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	rec := mocks.NewMockRecorder()
	cfg := testConfig(1)
	cfg.ResolveQPS = 0.001
	cfg.ResolveBurst = 1
	c := newTestCache(t, cfg, src, rec)

	fetch(t, c, 0, "10.0.0.1", func(*types.PeerIdentity) {})
	fetch(t, c, 0, "10.0.0.2", func(*types.PeerIdentity) {})
	waitApplied(t, c)

	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.1")}, src.Resolved())
	assert.Equal(t, 1, rec.Count("resolve/sent"))
	assert.Equal(t, 1, rec.Count("resolve/throttled"))
}

func TestCache_ResolveFailureRetries(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	src.ResolveFunc = func(context.Context, netip.Addr) error {
		return errors.New("unavailable")
	}
	rec := mocks.NewMockRecorder()
	c := newTestCache(t, testConfig(1), src, rec)

	fetch(t, c, 0, "10.0.0.1", func(*types.PeerIdentity) {})
	waitApplied(t, c)
	fetch(t, c, 0, "10.0.0.1", func(*types.PeerIdentity) {})
	waitApplied(t, c)

	assert.Len(t, src.Resolved(), 2)
	assert.Equal(t, 2, rec.Count("resolve/failed"))
	assert.Equal(t, 0, c.Stats().Inflight)
}

func TestCache_SubscribeFeedsShards(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	c := newTestCache(t, testConfig(1), src, nil)

	<-src.Subscribed()
	require.True(t, src.Push(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{record("r1", "one", "10.0.0.1")}}}))
	waitApplied(t, c)

	assert.NotNil(t, lookup(t, c, 0, "10.0.0.1"))
	assert.True(t, c.Stats().Subscribed)
}

func TestCache_Dump(t *testing.T) {
	c := newTestCache(t, testConfig(1), nil, nil)
	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{
		record("r2", "two", "10.0.0.2"),
		record("r1", "one", "10.0.0.1"),
	}}})
	waitApplied(t, c)

	entries, err := c.Dump(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "10.0.0.1", entries[0].Address)
	assert.Equal(t, "r1", entries[0].UID)

	_, err = c.Dump(context.Background(), 5)
	assert.ErrorIs(t, err, ErrInvalidShard)
}

func TestCache_Lifecycle(t *testing.T) {
	c, err := New(testConfig(1), nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Sync(context.Background()), ErrNotStarted)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
	require.NoError(t, c.Stop())
}

func TestCache_SlowControlPlaneDoesNotBlockWorkers(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	release := make(chan struct{})
	src.ResolveFunc = func(ctx context.Context, _ netip.Addr) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	rec := mocks.NewMockRecorder()
	cfg := testConfig(1)
	cfg.QueueSize = 1
	cfg.ResolveQPS = 0
	c := newTestCache(t, cfg, src, rec)
	defer close(release)

	for i := 1; i <= 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Do(ctx, 0, func(s *Shard) {
			s.Fetch(netip.AddrFrom4([4]byte{10, 0, 1, byte(i)}), func(*types.PeerIdentity) {})
		})
		cancel()
		require.NoError(t, err, "fetch %d", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Lookup(ctx, 0, netip.MustParseAddr("10.0.1.1"))
	require.NoError(t, err)

	// 控制循环同样没有被卡住
	require.NoError(t, c.pool.Control().Do(ctx, func() {}))
	assert.Positive(t, rec.Count("resolve/dropped"))
	assert.LessOrEqual(t, c.Stats().Inflight, 2)
}

func TestCache_DoHonorsContextOnFullQueue(t *testing.T) {
	cfg := testConfig(1)
	cfg.QueueSize = 1
	c := newTestCache(t, cfg, nil, nil)

	release := make(chan struct{})
	require.NoError(t, c.Post(0, func(*Shard) { <-release }))
	require.NoError(t, c.Post(0, func(*Shard) {}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Lookup(ctx, 0, netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, c.Sync(ctx), context.DeadlineExceeded)
}

func TestCache_OneRequestPerPendingAddress(t *testing.T) {
	rec := mocks.NewMockRecorder()
	c := newTestCache(t, testConfig(1), nil, rec)

	var log fetchLog
	var pending int
	require.NoError(t, c.Do(context.Background(), 0, func(s *Shard) {
		for _, tag := range []string{"a", "b", "c", "d", "e"} {
			s.Fetch(netip.MustParseAddr("10.0.0.4"), log.cb(tag))
		}
		pending = s.PendingLen()
	}))
	waitApplied(t, c)

	assert.Equal(t, 1, pending)
	assert.Equal(t, []string{"a:<nil>", "b:<nil>", "c:<nil>", "d:<nil>", "e:<nil>"}, log.get())
	assert.Equal(t, 1, rec.Count("resolve/local"))
	assert.EqualValues(t, 1, c.Stats().Deltas)
}

func TestCache_SnapshotClearsInflight(t *testing.T) {
	src := mocks.NewMockControlPlaneSource()
	c := newTestCache(t, testConfig(1), src, nil)

	var log fetchLog
	fetch(t, c, 0, "10.0.0.6", log.cb("a"))
	waitApplied(t, c)
	assert.Equal(t, 1, c.Stats().Inflight)

	// 全量中没有该地址：未完成标记清空，回调继续等待
	c.Apply(types.Update{Full: &types.Snapshot{Records: []types.WorkloadRecord{record("r1", "one", "10.0.0.1")}}})
	waitApplied(t, c)
	assert.Equal(t, 0, c.Stats().Inflight)
	assert.Empty(t, log.get())

	// 下一次未命中重新请求
	fetch(t, c, 0, "10.0.0.6", log.cb("b"))
	waitApplied(t, c)
	assert.Len(t, src.Resolved(), 2)
	assert.Equal(t, 1, c.Stats().Inflight)

	c.Apply(types.Update{Delta: &types.Delta{Added: []types.WorkloadRecord{record("r6", "six", "10.0.0.6")}}})
	waitApplied(t, c)
	assert.Equal(t, []string{"a:six", "b:six"}, log.get())
}
