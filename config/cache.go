package config

import (
	"fmt"
	"runtime"
)

// CacheConfig 分布式缓存配置
//
// 每个 worker 持有一个分片，控制面更新由控制线程广播到全部分片。
type CacheConfig struct {
	// Workers worker 数量，0 表示 runtime.GOMAXPROCS(0)
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize 每个 worker 事件队列容量
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// ResolveQPS 向控制面发起按需解析的速率上限，0 表示不限速
	ResolveQPS float64 `json:"resolve_qps" yaml:"resolve_qps"`

	// ResolveBurst 按需解析的突发量
	ResolveBurst int `json:"resolve_burst" yaml:"resolve_burst"`

	// ResolveTimeout 单次按需解析超时
	ResolveTimeout Duration `json:"resolve_timeout" yaml:"resolve_timeout"`
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Workers:        0,
		QueueSize:      1024,
		ResolveQPS:     100,
		ResolveBurst:   20,
		ResolveTimeout: Duration(5e9),
	}
}

// WorkerCount 返回实际 worker 数量
func (c CacheConfig) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate 验证缓存配置
func (c CacheConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", c.Workers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive (got %d)", c.QueueSize)
	}
	if c.ResolveQPS < 0 {
		return fmt.Errorf("resolve_qps must not be negative (got %v)", c.ResolveQPS)
	}
	if c.ResolveQPS > 0 && c.ResolveBurst <= 0 {
		return fmt.Errorf("resolve_burst must be positive when resolve_qps is set (got %d)", c.ResolveBurst)
	}
	if c.ResolveTimeout < 0 {
		return fmt.Errorf("resolve_timeout must not be negative (got %s)", c.ResolveTimeout)
	}
	return nil
}
