package discovery

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

// NewFromParams 从参数创建 Factory
func NewFromParams(p Params) (*Factory, error) {
	dcfg, pcfg := config.DefaultDiscoveryConfig(), config.DefaultPropagationConfig()
	if p.UnifiedCfg != nil {
		dcfg, pcfg = p.UnifiedCfg.Discovery, p.UnifiedCfg.Propagation
	}
	return NewFactory(dcfg, pcfg, p.Self, p.Metrics)
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("discovery",
		fx.Provide(NewFromParams),
	)
}
