package peermeta

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/controlplane"
	"github.com/dep2p/go-peermeta/internal/core/discovery"
	"github.com/dep2p/go-peermeta/internal/core/exchange"
	"github.com/dep2p/go-peermeta/internal/core/metrics"
	"github.com/dep2p/go-peermeta/internal/core/peercache"
	"github.com/dep2p/go-peermeta/internal/debug/introspect"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置与本端身份
//  2. 指标
//  3. 控制面 → 分布式缓存
//  4. 交换 / 发现工厂
//  5. 自省服务（条件加载）
func buildFxApp(o *options, agent *Agent) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		fx.Provide(fx.Annotate(provideSelf, fx.ResultTags(`name:"self"`))),

		// ════════════════════════════════════════════════════════════════════
		// 2. 指标（禁用时提供 NopRecorder）
		// ════════════════════════════════════════════════════════════════════
		metrics.Module,
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 控制面与缓存
	// ════════════════════════════════════════════════════════════════════════
	if o.source != nil {
		src := o.source
		modules = append(modules, fx.Provide(func() pkgif.ControlPlaneSource { return src }))
	} else {
		modules = append(modules, controlplane.Module())
	}
	modules = append(modules, peercache.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 4. 交换与发现
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		exchange.Module(),
		discovery.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 5. 自省服务（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if o.config.Diagnostics.EnableIntrospect {
		modules = append(modules, introspect.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 6. 用户扩展与组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, o.userFxOptions...)
	modules = append(modules, fx.Invoke(injectAgentComponents(agent)))

	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

// provideSelf 从统一配置构造本端身份
func provideSelf(cfg *config.Config) (*types.PeerIdentity, error) {
	self, err := cfg.Identity.Peer()
	if err != nil {
		return nil, fmt.Errorf("self identity: %w", err)
	}
	return self, nil
}

// agentInjectParams Agent 组件注入参数
type agentInjectParams struct {
	fx.In

	Self       *types.PeerIdentity   `name:"self"`
	Metrics    pkgif.MetricsRecorder
	Cache      *peercache.Cache
	Exchange   *exchange.Factory
	Discovery  *discovery.Factory
	Source     pkgif.ControlPlaneSource `optional:"true"`
	Introspect *introspect.Server       `optional:"true"`
}

// injectAgentComponents 把 Fx 构造的组件交给 Agent
func injectAgentComponents(agent *Agent) func(agentInjectParams) {
	return func(p agentInjectParams) {
		agent.self = p.Self
		agent.metrics = p.Metrics
		agent.cache = p.Cache
		agent.exchange = p.Exchange
		agent.discovery = p.Discovery
		agent.source = p.Source
		agent.introspect = p.Introspect
	}
}
