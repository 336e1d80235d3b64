package peermeta

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/discovery"
	"github.com/dep2p/go-peermeta/internal/core/exchange"
	"github.com/dep2p/go-peermeta/internal/core/peercache"
	"github.com/dep2p/go-peermeta/internal/debug/introspect"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("peermeta")

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "peermeta " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// startTimeout 启动 Fx 应用的超时
const startTimeout = 30 * time.Second

// Agent 对端身份代理
//
// 聚合分布式缓存、交换工厂、发现工厂和可选的自省服务。
// 数据面按 worker 使用：每条连接固定在一个 worker 上，
// 用 NewExchange/NewDiscoveryChain 取得绑定该 worker 分片的实例。
type Agent struct {
	config *config.Config
	app    *fx.App

	mu      sync.Mutex
	started bool
	closed  bool

	// 由 Fx 注入
	self       *types.PeerIdentity
	metrics    pkgif.MetricsRecorder
	cache      *peercache.Cache
	exchange   *exchange.Factory
	discovery  *discovery.Factory
	source     pkgif.ControlPlaneSource
	introspect *introspect.Server
}

// New 创建 Agent（不启动）
func New(opts ...Option) (*Agent, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	a := &Agent{config: o.config}

	var err error
	a.app, err = buildFxApp(o, a)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := a.app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return a, nil
}

// Start 启动 Agent
//
// 按依赖顺序执行各模块的 OnStart：缓存开始订阅控制面，自省服务开始监听。
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAgentClosed
	}
	if a.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := a.app.Start(startCtx); err != nil {
		logger.Error("启动失败", "error", err)
		return fmt.Errorf("start: %w", err)
	}
	a.started = true

	logger.Info("代理已启动",
		"self", a.self.String(),
		"workers", a.cache.Shards(),
		"exchange", a.exchange.Enabled(),
		"direction", a.exchange.Direction())
	return nil
}

// Stop 停止 Agent，停止后不能再次启动
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAgentClosed
	}
	if !a.started {
		return ErrNotStarted
	}

	a.started = false
	a.closed = true
	if err := a.app.Stop(ctx); err != nil {
		logger.Error("停止失败", "error", err)
		return fmt.Errorf("stop: %w", err)
	}
	logger.Info("代理已停止")
	return nil
}

// Self 返回本端身份
func (a *Agent) Self() *types.PeerIdentity {
	return a.self
}

// Config 返回统一配置
func (a *Agent) Config() *config.Config {
	return a.config
}

// Cache 返回分布式缓存
func (a *Agent) Cache() *peercache.Cache {
	return a.cache
}

// Exchange 返回交换工厂
func (a *Agent) Exchange() *exchange.Factory {
	return a.exchange
}

// Discovery 返回发现工厂
func (a *Agent) Discovery() *discovery.Factory {
	return a.discovery
}

// ControlPlane 返回控制面数据源，未配置时为 nil
func (a *Agent) ControlPlane() pkgif.ControlPlaneSource {
	return a.source
}

// Introspect 返回自省服务，未启用时为 nil
func (a *Agent) Introspect() *introspect.Server {
	return a.introspect
}

// NewExchange 为一条连接创建字节流交换
//
// worker 是该连接所在的 worker 序号；启用 FallbackToCache 时，
// 交换失败后用该 worker 的缓存分片按对端地址补查。
// 配置关闭交换时返回 ErrExchangeDisabled，调用方不应为该连接安装交换过滤器。
func (a *Agent) NewExchange(conn pkgif.Connection, fs pkgif.FilterState, worker int) (*exchange.Exchange, error) {
	if !a.exchange.Enabled() {
		return nil, ErrExchangeDisabled
	}
	var fallback pkgif.MetadataProvider
	if a.config.Exchange.FallbackToCache {
		shard := a.cache.Shard(worker)
		if shard == nil {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWorker, worker)
		}
		fallback = shard
	}
	return a.exchange.New(conn, fs, fallback), nil
}

// NewTunnelReader 创建 HBONE 隧道前导帧读取器
func (a *Agent) NewTunnelReader() *exchange.TunnelReader {
	return a.exchange.NewTunnelReader()
}

// NewDiscoveryChain 为 worker 创建按方向的发现链
func (a *Agent) NewDiscoveryChain(dir types.Direction, worker int) (*discovery.Chain, error) {
	shard := a.cache.Shard(worker)
	if shard == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorker, worker)
	}
	return a.discovery.NewChain(dir, shard), nil
}

// NewPropagator 创建按方向的传播器
func (a *Agent) NewPropagator(dir types.Direction) *discovery.Propagator {
	return a.discovery.NewPropagator(dir)
}
