package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/dep2p/go-peermeta/config"
)

// 环境变量
const (
	envPrefix         = "PEERMETA_"
	envLogLevel       = "LOG_LEVEL"
	envLogFormat      = "LOG_FORMAT"
	envWorkers        = "WORKERS"
	envControlPlane   = "CONTROL_PLANE_ADDR"
	envIntrospectAddr = "INTROSPECT_ADDR"
	envEnableMetrics  = "ENABLE_METRICS"
)

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
//   - PEERMETA_LOG_LEVEL / PEERMETA_LOG_FORMAT: 日志
//   - PEERMETA_WORKERS: worker 数量
//   - PEERMETA_CONTROL_PLANE_ADDR: gRPC 控制面地址，设置后切换到 grpc 模式
//   - PEERMETA_INTROSPECT_ADDR: 自省服务地址，设置后启用自省服务
//   - PEERMETA_ENABLE_METRICS: 是否暴露 /metrics
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envPrefix + envLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envPrefix + envLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(envPrefix + envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Workers = n
		}
	}
	if v := os.Getenv(envPrefix + envControlPlane); v != "" {
		cfg.ControlPlane.Mode = config.ControlPlaneGRPC
		cfg.ControlPlane.Address = v
	}
	if v := os.Getenv(envPrefix + envIntrospectAddr); v != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = v
	}
	if v := os.Getenv(envPrefix + envEnableMetrics); v != "" {
		cfg.Diagnostics.EnableMetrics = parseBool(v)
	}
}

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
