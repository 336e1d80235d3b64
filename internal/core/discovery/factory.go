package discovery

import (
	"fmt"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// Factory 按配置为每个 worker 构建发现链与传播链
//
// 传播值（baggage 文本、旧版文档头）在创建时编码一次。
type Factory struct {
	discovery   config.DiscoveryConfig
	propagation config.PropagationConfig
	metrics     pkgif.MetricsRecorder

	baggage *BaggagePropagation
	mx      *MXHeaderPropagation
}

// NewFactory 创建工厂
func NewFactory(dcfg config.DiscoveryConfig, pcfg config.PropagationConfig, self *types.PeerIdentity, metrics pkgif.MetricsRecorder) (*Factory, error) {
	if err := dcfg.Validate(); err != nil {
		return nil, fmt.Errorf("discovery config: %w", err)
	}
	if err := pcfg.Validate(); err != nil {
		return nil, fmt.Errorf("propagation config: %w", err)
	}
	mx, err := NewMXHeaderPropagation(self)
	if err != nil {
		return nil, err
	}
	return &Factory{
		discovery:   dcfg,
		propagation: pcfg,
		metrics:     pkgif.OrNop(metrics),
		baggage:     NewBaggagePropagation(self),
		mx:          mx,
	}, nil
}

// NewChain 为一个 worker 创建指定方向的发现链
//
// provider 为当前 worker 的缓存分片；为 nil 时 workload_discovery 方法被跳过。
// 每条链持有自己的 LocalCache。
func (f *Factory) NewChain(dir types.Direction, provider pkgif.MetadataProvider) *Chain {
	names := f.discovery.Downstream
	if dir == types.Upstream {
		names = f.discovery.Upstream
	}

	methods := make([]Method, 0, len(names))
	for _, name := range names {
		switch name {
		case config.MethodBaggage:
			methods = append(methods, BaggageMethod{})
		case config.MethodWorkloadDiscovery:
			if provider == nil {
				logger.Warn("没有缓存分片，跳过 workload_discovery", "direction", dir)
				continue
			}
			methods = append(methods, NewWorkloadDiscoveryMethod(provider, f.discovery.PrefetchOnMiss))
		case config.MethodMXHeaders:
			methods = append(methods, NewMXHeaderMethod(NewLocalCache(f.discovery.LocalCacheSize)))
		}
	}
	return NewChain(dir, methods, f.metrics)
}

// NewPropagator 创建指定方向的传播链
func (f *Factory) NewPropagator(dir types.Direction) *Propagator {
	names := f.propagation.Downstream
	if dir == types.Upstream {
		names = f.propagation.Upstream
	}

	methods := make([]PropagationMethod, 0, len(names))
	for _, name := range names {
		switch name {
		case config.MethodBaggage:
			methods = append(methods, f.baggage)
		case config.MethodMXHeaders:
			methods = append(methods, f.mx)
		}
	}
	return NewPropagator(dir, methods, f.propagation, f.metrics)
}
