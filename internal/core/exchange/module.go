package exchange

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// Params Factory 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Self       *types.PeerIdentity   `name:"self"`
	Metrics    pkgif.MetricsRecorder `optional:"true"`
}

// ConfigFromUnified 从统一配置取交换配置
func ConfigFromUnified(cfg *config.Config) config.ExchangeConfig {
	if cfg == nil {
		return config.DefaultExchangeConfig()
	}
	return cfg.Exchange
}

// NewFromParams 从参数创建 Factory
func NewFromParams(p Params) (*Factory, error) {
	return NewFactory(ConfigFromUnified(p.UnifiedCfg), p.Self, p.Metrics)
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(NewFromParams),
	)
}
