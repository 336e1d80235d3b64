package peercache

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
)

// Params Cache 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config           `optional:"true"`
	Source     pkgif.ControlPlaneSource `optional:"true"`
	Metrics    pkgif.MetricsRecorder    `optional:"true"`
}

// ConfigFromUnified 从统一配置取缓存配置
func ConfigFromUnified(cfg *config.Config) config.CacheConfig {
	if cfg == nil {
		return config.DefaultCacheConfig()
	}
	return cfg.Cache
}

// NewFromParams 从参数创建 Cache
func NewFromParams(p Params) (*Cache, error) {
	return New(ConfigFromUnified(p.UnifiedCfg), p.Source, p.Metrics)
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("peercache",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, c *Cache) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Start(ctx)
		},
		OnStop: func(context.Context) error {
			return c.Stop()
		},
	})
}
