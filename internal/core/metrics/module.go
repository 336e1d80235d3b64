package metrics

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled: cfg.Diagnostics.EnableMetrics,
	}
}

// Params Recorder 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(
		NewRecorderFromParams,
		AsMetricsRecorder,
	),
)

// NewRecorderFromParams 从参数创建 Recorder，禁用时返回 nil
func NewRecorderFromParams(p Params) *Recorder {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return nil
	}
	return NewRecorder(nil)
}

// AsMetricsRecorder 转为接口；nil Recorder 得到 NopRecorder
func AsMetricsRecorder(r *Recorder) pkgif.MetricsRecorder {
	if r == nil {
		return pkgif.NopRecorder{}
	}
	return r
}
