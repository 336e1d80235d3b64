package exchange

import "errors"

var (
	// ErrShortHeader 数据不足一个帧头
	ErrShortHeader = errors.New("short frame header")

	// ErrBadMagic 魔数不匹配
	ErrBadMagic = errors.New("bad frame magic")

	// ErrPayloadTooLarge 负载长度超过上限
	ErrPayloadTooLarge = errors.New("frame payload too large")
)
