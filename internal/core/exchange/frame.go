package exchange

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize 帧头长度：u32 magic + u32 length
	HeaderSize = 8

	// ExchangeMagic 双向交换帧魔数
	ExchangeMagic uint32 = 0x3D230467

	// TunnelMagic 单向隧道帧魔数
	TunnelMagic uint32 = 0xABCD1234
)

// Header 帧头
type Header struct {
	Magic  uint32
	Length uint32
}

// AppendTo 按网络字节序追加到 dst
func (h Header) AppendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.Magic)
	return binary.BigEndian.AppendUint32(dst, h.Length)
}

// ParseHeader 解析帧头，只读取前 HeaderSize 个字节
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return Header{
		Magic:  binary.BigEndian.Uint32(b[0:4]),
		Length: binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// Check 校验魔数与长度上限，max 为 0 表示不限
func (h Header) Check(magic, max uint32) error {
	if h.Magic != magic {
		return fmt.Errorf("%w: got %#08x, want %#08x", ErrBadMagic, h.Magic, magic)
	}
	if max > 0 && h.Length > max {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, h.Length, max)
	}
	return nil
}

// EncodeFrame 构造完整帧
func EncodeFrame(magic uint32, payload []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(payload))
	out = Header{Magic: magic, Length: uint32(len(payload))}.AppendTo(out)
	return append(out, payload...)
}
