package exchange

import (
	"fmt"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/codec"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// Factory 按配置为每个连接创建 Exchange
//
// 本端身份帧在创建 Factory 时编码一次，所有连接共享（每次写出时复制）。
type Factory struct {
	cfg     config.ExchangeConfig
	frame   []byte
	metrics pkgif.MetricsRecorder
}

// NewFactory 创建工厂
func NewFactory(cfg config.ExchangeConfig, self *types.PeerIdentity, metrics pkgif.MetricsRecorder) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("exchange config: %w", err)
	}
	payload, err := codec.WrapEnvelope(self)
	if err != nil {
		return nil, fmt.Errorf("encode self identity: %w", err)
	}
	if cfg.MaxPayloadSize > 0 && uint32(len(payload)) > cfg.MaxPayloadSize {
		return nil, fmt.Errorf("%w: self identity is %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return &Factory{
		cfg:     cfg,
		frame:   EncodeFrame(ExchangeMagic, payload),
		metrics: pkgif.OrNop(metrics),
	}, nil
}

// Enabled 是否启用交换
func (f *Factory) Enabled() bool {
	return f.cfg.Enable
}

// Direction 状态机写入的方向
func (f *Factory) Direction() types.Direction {
	return f.cfg.Direction
}

// Frame 返回本端身份帧的副本
func (f *Factory) Frame() []byte {
	out := make([]byte, len(f.frame))
	copy(out, f.frame)
	return out
}

// New 为一个连接创建状态机
//
// fallback 通常是当前 worker 的缓存分片，可为 nil；
// 配置关闭 FallbackToCache 时忽略。交换关闭时返回的状态机处于 StateDisabled，
// 不写出身份帧，不读取、不修改任何字节，也不写共享状态。
func (f *Factory) New(conn pkgif.Connection, state pkgif.FilterState, fallback pkgif.MetadataProvider) *Exchange {
	if !f.cfg.Enable {
		return &Exchange{conn: conn, state: state, metrics: f.metrics, dir: f.cfg.Direction, current: StateDisabled}
	}
	e := &Exchange{
		conn:       conn,
		state:      state,
		metrics:    f.metrics,
		dir:        f.cfg.Direction,
		protocol:   f.cfg.Protocol,
		frame:      f.frame,
		maxPayload: f.cfg.MaxPayloadSize,
		current:    StateProtocolUnconfirmed,
	}
	if f.cfg.FallbackToCache {
		e.fallback = fallback
	}
	return e
}

// NewTunnelReader 按配置的负载上限创建隧道读端
func (f *Factory) NewTunnelReader() *TunnelReader {
	return NewTunnelReader(f.cfg.MaxPayloadSize)
}
