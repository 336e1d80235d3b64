package peermeta

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// source 非 nil 时替代按配置创建的控制面数据源
	source pkgif.ControlPlaneSource

	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用给定的统一配置（深拷贝）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return config.ErrNilConfig
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithConfigFile 从 JSON/YAML 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 在当前配置上应用预设：sidecar、gateway、waypoint、minimal
func WithPreset(name string) Option {
	return func(o *options) error {
		return config.ApplyPreset(o.config, name)
	}
}

// WithIdentity 设置本端身份
func WithIdentity(id config.IdentityConfig) Option {
	return func(o *options) error {
		if err := id.Validate(); err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		o.config.Identity = id
		return nil
	}
}

// WithWorkers 设置 worker 数量，0 表示 GOMAXPROCS
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("workers must not be negative (got %d)", n)
		}
		o.config.Cache.Workers = n
		return nil
	}
}

// WithControlPlane 使用给定的控制面数据源，忽略配置中的控制面模式
func WithControlPlane(src pkgif.ControlPlaneSource) Option {
	return func(o *options) error {
		o.source = src
		return nil
	}
}

// WithIntrospect 启用或禁用本地自省服务
func WithIntrospect(enable bool) Option {
	return func(o *options) error {
		o.config.Diagnostics.EnableIntrospect = enable
		return nil
	}
}

// WithIntrospectAddr 设置自省服务监听地址，同时启用自省服务
func WithIntrospectAddr(addr string) Option {
	return func(o *options) error {
		o.config.Diagnostics.EnableIntrospect = true
		o.config.Diagnostics.IntrospectAddr = addr
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
