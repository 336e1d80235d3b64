package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// 控制面模式
const (
	// ControlPlaneNone 不订阅，缓存只会得到“未知”结果
	ControlPlaneNone = "none"
	// ControlPlaneStatic 从配置中的静态记录加载
	ControlPlaneStatic = "static"
	// ControlPlaneGRPC 通过 gRPC 流订阅
	ControlPlaneGRPC = "grpc"
)

// StaticRecord 静态工作负载记录
type StaticRecord struct {
	// UID 工作负载唯一标识
	UID string `json:"uid" yaml:"uid"`

	// Addresses 工作负载地址
	Addresses []string `json:"addresses" yaml:"addresses"`

	// Peer 工作负载身份
	Peer IdentityConfig `json:"peer" yaml:"peer"`
}

// ControlPlaneConfig 控制面配置
type ControlPlaneConfig struct {
	// Mode none | static | grpc
	Mode string `json:"mode" yaml:"mode"`

	// Address gRPC 服务地址（grpc 模式）
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Records 静态记录（static 模式）
	Records []StaticRecord `json:"records,omitempty" yaml:"records,omitempty"`

	// ReconnectInitial 重连初始间隔
	ReconnectInitial Duration `json:"reconnect_initial" yaml:"reconnect_initial"`

	// ReconnectMax 重连最大间隔
	ReconnectMax Duration `json:"reconnect_max" yaml:"reconnect_max"`
}

// DefaultControlPlaneConfig 返回默认控制面配置
func DefaultControlPlaneConfig() ControlPlaneConfig {
	return ControlPlaneConfig{
		Mode:             ControlPlaneNone,
		ReconnectInitial: Duration(500 * time.Millisecond),
		ReconnectMax:     Duration(30 * time.Second),
	}
}

// Validate 验证控制面配置
func (c ControlPlaneConfig) Validate() error {
	switch c.Mode {
	case ControlPlaneNone:
	case ControlPlaneStatic:
		seen := make(map[string]struct{}, len(c.Records))
		for i, r := range c.Records {
			if r.UID == "" {
				return fmt.Errorf("records[%d]: uid must not be empty", i)
			}
			if _, dup := seen[r.UID]; dup {
				return fmt.Errorf("records[%d]: duplicate uid %q", i, r.UID)
			}
			seen[r.UID] = struct{}{}
			for _, a := range r.Addresses {
				if _, err := netip.ParseAddr(a); err != nil {
					return fmt.Errorf("records[%d]: %w", i, err)
				}
			}
			if err := r.Peer.Validate(); err != nil {
				return fmt.Errorf("records[%d]: %w", i, err)
			}
		}
	case ControlPlaneGRPC:
		if c.Address == "" {
			return errors.New("address must not be empty in grpc mode")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.ReconnectInitial <= 0 || c.ReconnectMax < c.ReconnectInitial {
		return fmt.Errorf("invalid reconnect interval %s..%s", c.ReconnectInitial, c.ReconnectMax)
	}
	return nil
}
