package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "identity": {"namespace": "bookinfo", "workload_name": "ratings-v1", "workload_type": "deployment"},
//	  "control_plane": {"mode": "grpc", "address": "istiod.istio-system:15012"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 按扩展名加载配置文件并验证
//
// .yaml/.yml 按 YAML 解析，其余按 JSON 解析。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// ToYAML 序列化为 YAML
func ToYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	return yaml.Marshal(cfg)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "sidecar": 每个工作负载一个代理，默认值
//   - "gateway": 入口/出口网关，不做字节流交换，更大的本地缓存
//   - "waypoint": 隧道后的共享代理，只依赖控制面发现
//   - "minimal": 只用 baggage，无缓存、无控制面
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "sidecar", "":
		return nil
	case "gateway":
		return applyGatewayPreset(cfg)
	case "waypoint":
		return applyWaypointPreset(cfg)
	case "minimal":
		return applyMinimalPreset(cfg)
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}

// applyGatewayPreset 网关预设
//
// 网关面对的大多是集群外客户端，字节流交换没有对端可协商。
func applyGatewayPreset(cfg *Config) error {
	cfg.Exchange.Enable = false
	cfg.Discovery.LocalCacheSize = 4096
	cfg.Propagation.Downstream = nil
	cfg.Cache.ResolveQPS = 500
	cfg.Cache.ResolveBurst = 100
	return nil
}

// applyWaypointPreset waypoint 预设
//
// 隧道内的请求不携带可信的身份头，只按地址查询控制面。
func applyWaypointPreset(cfg *Config) error {
	cfg.Exchange.Enable = false
	cfg.Discovery.Downstream = []string{MethodWorkloadDiscovery}
	cfg.Discovery.Upstream = []string{MethodWorkloadDiscovery}
	cfg.Discovery.LocalCacheSize = 0
	cfg.Propagation.Downstream = nil
	cfg.Propagation.Upstream = []string{MethodBaggage}
	if cfg.ControlPlane.Mode == ControlPlaneNone {
		cfg.ControlPlane.Mode = ControlPlaneGRPC
	}
	return nil
}

// applyMinimalPreset 最小预设，适合测试和开发
func applyMinimalPreset(cfg *Config) error {
	cfg.Exchange.Enable = false
	cfg.Discovery.Downstream = []string{MethodBaggage}
	cfg.Discovery.Upstream = []string{MethodBaggage}
	cfg.Discovery.LocalCacheSize = 0
	cfg.Discovery.PrefetchOnMiss = false
	cfg.Propagation.Downstream = nil
	cfg.Propagation.Upstream = []string{MethodBaggage}
	cfg.ControlPlane.Mode = ControlPlaneNone
	cfg.Cache.Workers = 1
	return nil
}

// CloneConfig 深拷贝配置
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.Identity = cloneIdentity(cfg.Identity)
	c.Discovery.Downstream = slices.Clone(cfg.Discovery.Downstream)
	c.Discovery.Upstream = slices.Clone(cfg.Discovery.Upstream)
	c.Propagation.Downstream = slices.Clone(cfg.Propagation.Downstream)
	c.Propagation.Upstream = slices.Clone(cfg.Propagation.Upstream)
	c.Propagation.SkipClusters = slices.Clone(cfg.Propagation.SkipClusters)
	if cfg.ControlPlane.Records != nil {
		c.ControlPlane.Records = make([]StaticRecord, len(cfg.ControlPlane.Records))
		for i, r := range cfg.ControlPlane.Records {
			c.ControlPlane.Records[i] = StaticRecord{
				UID:       r.UID,
				Addresses: slices.Clone(r.Addresses),
				Peer:      cloneIdentity(r.Peer),
			}
		}
	}
	return &c
}

func cloneIdentity(id IdentityConfig) IdentityConfig {
	c := id
	if id.PlatformMetadata != nil {
		c.PlatformMetadata = make(map[string]string, len(id.PlatformMetadata))
		for k, v := range id.PlatformMetadata {
			c.PlatformMetadata[k] = v
		}
	}
	c.AppContainers = slices.Clone(id.AppContainers)
	c.InstanceIPs = slices.Clone(id.InstanceIPs)
	return c
}
