package config

import (
	"errors"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// DefaultExchangeProtocol 默认的带外协商协议名
const DefaultExchangeProtocol = "istio-peer-exchange"

// ExchangeConfig 字节流身份交换配置
type ExchangeConfig struct {
	// Enable 是否启用
	Enable bool `json:"enable" yaml:"enable"`

	// Protocol 带外协商（ALPN 等价物）确认的协议名
	Protocol string `json:"protocol" yaml:"protocol"`

	// Direction 本端在连接中的位置，决定发现结果写入哪个状态键
	Direction types.Direction `json:"direction" yaml:"direction"`

	// MaxPayloadSize 单帧负载上限（字节），超过视为非法
	MaxPayloadSize uint32 `json:"max_payload_size" yaml:"max_payload_size"`

	// FallbackToCache 交换失败时按对端地址查询分布式缓存
	FallbackToCache bool `json:"fallback_to_cache" yaml:"fallback_to_cache"`
}

// DefaultExchangeConfig 返回默认交换配置
func DefaultExchangeConfig() ExchangeConfig {
	return ExchangeConfig{
		Enable:          true,
		Protocol:        DefaultExchangeProtocol,
		Direction:       types.Downstream,
		MaxPayloadSize:  1 << 20, // 1 MiB，正常的身份文档只有几百字节
		FallbackToCache: true,
	}
}

// Validate 验证交换配置
func (c ExchangeConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.Protocol == "" {
		return errors.New("protocol must not be empty")
	}
	if c.MaxPayloadSize == 0 {
		return errors.New("max_payload_size must be positive")
	}
	return nil
}
