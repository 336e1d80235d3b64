package controlplane

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
)

var logger = log.Logger("core/controlplane")

// Params 数据源依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// ConfigFromUnified 从统一配置取控制面配置
func ConfigFromUnified(cfg *config.Config) config.ControlPlaneConfig {
	if cfg == nil {
		return config.DefaultControlPlaneConfig()
	}
	return cfg.ControlPlane
}

// New 按模式创建数据源；none 模式返回 nil
func New(cfg config.ControlPlaneConfig) (pkgif.ControlPlaneSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("control plane config: %w", err)
	}
	switch cfg.Mode {
	case config.ControlPlaneNone:
		return nil, nil
	case config.ControlPlaneStatic:
		return StaticFromConfig(cfg.Records)
	case config.ControlPlaneGRPC:
		return NewGRPCSource(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// NewFromParams 从参数创建数据源
func NewFromParams(p Params) (pkgif.ControlPlaneSource, error) {
	return New(ConfigFromUnified(p.UnifiedCfg))
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("controlplane",
		fx.Provide(NewFromParams),
	)
}
