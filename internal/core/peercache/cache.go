package peercache

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/worker"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("core/peercache")

// 更新类型（指标标签）
const (
	UpdateFull  = "full"
	UpdateDelta = "delta"
)

// 按需解析结果（指标标签）
const (
	ResolveSent      = "sent"
	ResolveThrottled = "throttled"
	ResolveFailed    = "failed"
	ResolveLocal     = "local"
	ResolveDropped   = "dropped"
)

// Stats 缓存统计
type Stats struct {
	Shards     int       `json:"shards"`
	Snapshots  uint64    `json:"snapshots"`
	Deltas     uint64    `json:"deltas"`
	Inflight   int       `json:"inflight"`
	LastUpdate time.Time `json:"last_update"`
	Subscribed bool      `json:"subscribed"`
}

// Cache 分布式缓存
//
// 拥有一个 worker 池：每个 worker 一个 Shard，控制循环负责预处理更新
// 与按需解析的去重、限速。对控制面的 Resolve 调用在单独的 resolver
// 循环上执行，控制面变慢不会拖住控制循环。
type Cache struct {
	cfg     config.CacheConfig
	source  pkgif.ControlPlaneSource
	metrics pkgif.MetricsRecorder
	limiter *rate.Limiter

	pool     *worker.Pool
	resolver *worker.Loop
	shards   []*Shard

	// 只在控制循环上访问
	inflight map[types.AddressKey]struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool

	snapshots  atomic.Uint64
	deltas     atomic.Uint64
	inflightN  atomic.Int64
	lastUpdate atomic.Int64
	subscribed atomic.Bool
}

// New 创建缓存
//
// source 为 nil 时不订阅控制面，按需解析立即得到"不存在"。
func New(cfg config.CacheConfig, source pkgif.ControlPlaneSource, metrics pkgif.MetricsRecorder) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	limit := rate.Inf
	if cfg.ResolveQPS > 0 {
		limit = rate.Limit(cfg.ResolveQPS)
	}
	c := &Cache{
		cfg:      cfg,
		source:   source,
		metrics:  pkgif.OrNop(metrics),
		limiter:  rate.NewLimiter(limit, cfg.ResolveBurst),
		pool:     worker.NewPool(cfg.WorkerCount(), cfg.QueueSize),
		resolver: worker.NewLoop("resolver", cfg.QueueSize),
		inflight: make(map[types.AddressKey]struct{}),
	}
	c.shards = make([]*Shard, c.pool.Size())
	for i := range c.shards {
		c.shards[i] = newShard(i, c, c.metrics)
	}
	return c, nil
}

// Start 启动 worker 池并订阅控制面
func (c *Cache) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.pool.Start()
	c.resolver.Start()

	if c.source != nil {
		c.wg.Add(1)
		go c.subscribe()
	}
	logger.Info("分布式缓存已启动", "shards", len(c.shards), "control_plane", c.source != nil)
	return nil
}

// Stop 取消订阅并停止 worker 池
func (c *Cache) Stop() error {
	if !c.started.Load() {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	c.pool.Stop()
	c.resolver.Stop()
	logger.Info("分布式缓存已停止")
	return nil
}

func (c *Cache) subscribe() {
	defer c.wg.Done()
	c.subscribed.Store(true)
	defer c.subscribed.Store(false)

	err := c.source.Subscribe(c.ctx, c.Apply)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("控制面订阅结束", "err", err)
	}
}

// Shards 分片数量
func (c *Cache) Shards() int {
	return len(c.shards)
}

// Shard 返回第 i 个分片，越界时返回 nil
//
// 分片只能在对应 worker 的循环上使用，即 Do/Post 投递的任务内部。
func (c *Cache) Shard(i int) *Shard {
	if i < 0 || i >= len(c.shards) {
		return nil
	}
	return c.shards[i]
}

// Do 在第 i 个 worker 上执行 fn，并等待执行完毕
func (c *Cache) Do(ctx context.Context, i int, fn func(*Shard)) error {
	if i < 0 || i >= len(c.shards) {
		return fmt.Errorf("%w: %d", ErrInvalidShard, i)
	}
	if !c.started.Load() {
		return ErrNotStarted
	}
	s := c.shards[i]
	return c.pool.Worker(i).Do(ctx, func() { fn(s) })
}

// Post 在第 i 个 worker 上异步执行 fn
func (c *Cache) Post(i int, fn func(*Shard)) error {
	if i < 0 || i >= len(c.shards) {
		return fmt.Errorf("%w: %d", ErrInvalidShard, i)
	}
	s := c.shards[i]
	return c.pool.Worker(i).Post(func() { fn(s) })
}

// Apply 接收一个控制面更新
//
// 可在任意 goroutine 调用；更新在控制循环上预处理后投递给所有分片。
func (c *Cache) Apply(u types.Update) {
	if u.Full == nil && u.Delta == nil {
		logger.Debug("忽略空更新")
		return
	}
	if err := c.pool.Control().Post(func() { c.apply(u) }); err != nil {
		logger.Debug("缓存已停止，丢弃更新", "err", err)
	}
}

// apply 在控制循环上执行
func (c *Cache) apply(u types.Update) {
	if u.Full != nil {
		idx := indexSnapshot(u.Full)
		clear(c.inflight)
		c.inflightN.Store(0)
		c.broadcast(func(s *Shard) { s.applySnapshot(idx) })
		c.snapshots.Add(1)
		c.metrics.CacheUpdate(UpdateFull, len(u.Full.Records))
		logger.Debug("应用全量更新", "records", len(u.Full.Records), "addresses", len(idx.byAddr))
	}
	if u.Delta != nil && !u.Delta.Empty() {
		idx := indexDelta(u.Delta)
		for _, k := range idx.covered() {
			c.clearInflight(k)
		}
		c.broadcast(func(s *Shard) { s.applyDelta(idx) })
		c.deltas.Add(1)
		c.metrics.CacheUpdate(UpdateDelta, len(u.Delta.Added)+len(u.Delta.RemovedIDs))
		logger.Debug("应用增量更新",
			"added", len(u.Delta.Added),
			"removed", len(u.Delta.RemovedIDs),
			"unresolved", len(u.Delta.Unresolved))
	}
	c.lastUpdate.Store(time.Now().UnixNano())
}

func (c *Cache) broadcast(fn func(*Shard)) {
	for i, s := range c.shards {
		if err := c.pool.Worker(i).Post(func() { fn(s) }); err != nil {
			logger.Debug("分片已停止，丢弃更新", "shard", i, "err", err)
		}
	}
}

func (c *Cache) clearInflight(k types.AddressKey) {
	if _, ok := c.inflight[k]; ok {
		delete(c.inflight, k)
		c.inflightN.Add(-1)
	}
}

// requestResolve 由分片在 worker 上调用，请求控制循环解析一个地址
//
// 非阻塞：控制队列已满时丢弃请求并返回 false。
func (c *Cache) requestResolve(shard int, key types.AddressKey) bool {
	err := c.pool.Control().TryPost(func() { c.resolve(shard, key) })
	if err != nil {
		c.metrics.ResolveRequest(ResolveDropped)
		logger.Debug("控制队列不可用，放弃解析", "addr", key, "err", err)
		return false
	}
	return true
}

// resolve 在控制循环上执行；同一地址最多一个未完成的请求
func (c *Cache) resolve(shard int, key types.AddressKey) {
	if _, ok := c.inflight[key]; ok {
		return
	}
	addr, err := key.Addr()
	if err != nil {
		return
	}

	if c.source == nil {
		// 没有控制面：直接确认不存在，让等待中的回调返回
		c.metrics.ResolveRequest(ResolveLocal)
		c.apply(types.Update{Delta: &types.Delta{Unresolved: []netip.Addr{addr}}})
		return
	}
	if !c.limiter.Allow() {
		c.metrics.ResolveRequest(ResolveThrottled)
		logger.Debug("按需解析被限速", "addr", addr)
		c.rearm(shard, key)
		return
	}

	if err := c.resolver.TryPost(func() { c.send(key, addr) }); err != nil {
		c.metrics.ResolveRequest(ResolveDropped)
		logger.Debug("解析队列不可用，放弃解析", "addr", addr, "err", err)
		c.rearm(shard, key)
		return
	}
	c.inflight[key] = struct{}{}
	c.inflightN.Add(1)
}

// send 在 resolver 循环上执行
func (c *Cache) send(key types.AddressKey, addr netip.Addr) {
	ctx := c.ctx
	if d := c.cfg.ResolveTimeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	err := c.source.Resolve(ctx, addr)
	if err == nil {
		c.metrics.ResolveRequest(ResolveSent)
		return
	}
	c.metrics.ResolveRequest(ResolveFailed)
	logger.Debug("按需解析请求失败", "addr", addr, "err", err)

	// resolver 不是 worker，可以阻塞等待控制队列
	if err := c.pool.Control().Post(func() {
		c.clearInflight(key)
		c.broadcast(func(s *Shard) { s.rearm(key) })
	}); err != nil {
		logger.Debug("缓存已停止，放弃清理解析状态", "addr", addr, "err", err)
	}
}

// rearm 在控制循环上执行，通知请求方分片可以重新请求
func (c *Cache) rearm(shard int, key types.AddressKey) {
	s := c.Shard(shard)
	if s == nil {
		return
	}
	if err := c.pool.Worker(shard).Post(func() { s.rearm(key) }); err != nil {
		logger.Debug("分片已停止", "shard", shard, "err", err)
	}
}

// Sync 等待此前提交的更新与解析请求处理完
//
// 依次排空控制循环、resolver 循环，再排空控制循环与所有分片，
// 解析失败后的清理也会被等待到。
func (c *Cache) Sync(ctx context.Context) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	if err := c.pool.Control().Do(ctx, func() {}); err != nil {
		return err
	}
	if err := c.resolver.Do(ctx, func() {}); err != nil {
		return err
	}
	return c.pool.Barrier(ctx)
}

// Dump 返回第 i 个分片的全部条目
func (c *Cache) Dump(ctx context.Context, i int) ([]Entry, error) {
	var out []Entry
	err := c.Do(ctx, i, func(s *Shard) {
		out = s.Entries()
	})
	return out, err
}

// Lookup 在第 i 个分片上同步查询地址
func (c *Cache) Lookup(ctx context.Context, i int, addr netip.Addr) (*types.PeerIdentity, error) {
	var peer *types.PeerIdentity
	err := c.Do(ctx, i, func(s *Shard) {
		peer = s.GetMetadata(addr)
	})
	return peer, err
}

// Stats 返回统计信息
func (c *Cache) Stats() Stats {
	s := Stats{
		Shards:     len(c.shards),
		Snapshots:  c.snapshots.Load(),
		Deltas:     c.deltas.Load(),
		Inflight:   int(c.inflightN.Load()),
		Subscribed: c.subscribed.Load(),
	}
	if ns := c.lastUpdate.Load(); ns > 0 {
		s.LastUpdate = time.Unix(0, ns)
	}
	return s
}
