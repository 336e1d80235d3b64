// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，各自提供 DefaultXxxConfig 与 Validate
//   - 支持从 JSON / YAML 加载和保存配置
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Identity.WorkloadName = "ratings-v1"
//	cfg.Identity.Namespace = "bookinfo"
//
//	// 从文件加载（按扩展名选择 JSON 或 YAML）
//	cfg, err := config.LoadFile("/etc/peermeta/config.yaml")
package config

// Config 是 go-peermeta 的完整配置结构
//
// 配置按照功能模块组织：
//   - Identity: 本端身份（对外传播、交换时写出）
//   - Exchange: TCP 字节流身份交换
//   - Discovery: 按方向的发现方法链
//   - Propagation: 按方向的传播方法链
//   - Cache: 分布式缓存（worker 分片）
//   - ControlPlane: 控制面订阅
//   - Diagnostics: 诊断服务
//   - Log: 日志
type Config struct {
	// Identity 本端身份配置
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// Exchange 字节流交换配置
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`

	// Discovery 发现链配置
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Propagation 传播链配置
	Propagation PropagationConfig `json:"propagation" yaml:"propagation"`

	// Cache 分布式缓存配置
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// ControlPlane 控制面配置
	ControlPlane ControlPlaneConfig `json:"control_plane" yaml:"control_plane"`

	// Diagnostics 诊断服务配置
	Diagnostics DiagnosticsConfig `json:"diagnostics" yaml:"diagnostics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:     DefaultIdentityConfig(),
		Exchange:     DefaultExchangeConfig(),
		Discovery:    DefaultDiscoveryConfig(),
		Propagation:  DefaultPropagationConfig(),
		Cache:        DefaultCacheConfig(),
		ControlPlane: DefaultControlPlaneConfig(),
		Diagnostics:  DefaultDiagnosticsConfig(),
		Log:          DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回合并后的全部错误。
func (c *Config) Validate() error {
	return ValidateAll(c)
}
