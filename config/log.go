package config

import (
	"fmt"

	"github.com/dep2p/go-peermeta/pkg/lib/log"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level debug | info | warn | error
	Level string `json:"level" yaml:"level"`

	// Format text | json
	Format string `json:"format" yaml:"format"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: log.FormatText,
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Format {
	case log.FormatText, log.FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
}
