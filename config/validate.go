package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrNilConfig 配置为空
var ErrNilConfig = errors.New("config is nil")

// ValidateSubConfig 可独立验证的子配置
type ValidateSubConfig interface {
	Validate() error
}

// ValidateAll 验证整个配置
//
// 与逐个返回第一个错误不同，这里收集所有子配置的错误，
// 便于一次性修正配置文件。
func ValidateAll(c *Config) error {
	if c == nil {
		return ErrNilConfig
	}
	subs := []struct {
		name string
		sub  ValidateSubConfig
	}{
		{"identity", c.Identity},
		{"exchange", c.Exchange},
		{"discovery", c.Discovery},
		{"propagation", c.Propagation},
		{"cache", c.Cache},
		{"control_plane", c.ControlPlane},
		{"diagnostics", c.Diagnostics},
		{"log", c.Log},
	}
	var err error
	for _, s := range subs {
		if e := s.sub.Validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.name, e))
		}
	}
	return err
}

// MustValidate 验证配置，失败时 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}
