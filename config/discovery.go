package config

import (
	"fmt"
)

// 发现方法名称
const (
	// MethodBaggage 从 baggage 请求头解码
	MethodBaggage = "baggage"
	// MethodWorkloadDiscovery 按对端地址查询分布式缓存
	MethodWorkloadDiscovery = "workload_discovery"
	// MethodMXHeaders 旧版 id + 文档请求头对
	MethodMXHeaders = "mx_headers"
)

// DiscoveryConfig 发现链配置
//
// Downstream/Upstream 中的方法按顺序尝试，第一个得到身份的方法胜出。
type DiscoveryConfig struct {
	// Downstream 下游方向的方法列表
	Downstream []string `json:"downstream" yaml:"downstream"`

	// Upstream 上游方向的方法列表
	Upstream []string `json:"upstream" yaml:"upstream"`

	// LocalCacheSize 旧版请求头方法的本地缓存容量，0 表示不缓存
	LocalCacheSize int `json:"local_cache_size" yaml:"local_cache_size"`

	// PrefetchOnMiss 缓存未命中时触发控制面按需解析
	PrefetchOnMiss bool `json:"prefetch_on_miss" yaml:"prefetch_on_miss"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Downstream:     []string{MethodBaggage, MethodMXHeaders, MethodWorkloadDiscovery},
		Upstream:       []string{MethodBaggage, MethodMXHeaders, MethodWorkloadDiscovery},
		LocalCacheSize: 500,
		PrefetchOnMiss: true,
	}
}

// Validate 验证发现配置
func (c DiscoveryConfig) Validate() error {
	for _, list := range [][]string{c.Downstream, c.Upstream} {
		if err := validateMethods(list, MethodBaggage, MethodWorkloadDiscovery, MethodMXHeaders); err != nil {
			return err
		}
	}
	if c.LocalCacheSize < 0 {
		return fmt.Errorf("local_cache_size must not be negative (got %d)", c.LocalCacheSize)
	}
	return nil
}

// validateMethods 方法名必须已知且不重复
func validateMethods(methods []string, known ...string) error {
	seen := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		ok := false
		for _, k := range known {
			if m == k {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unknown method %q", m)
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("duplicate method %q", m)
		}
		seen[m] = struct{}{}
	}
	return nil
}
