package exchange

import (
	"github.com/dep2p/go-peermeta/internal/core/codec"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// EncodeTunnelFrame 构造单向隧道帧，peer 为 nil 时负载长度为 0
func EncodeTunnelFrame(peer *types.PeerIdentity) ([]byte, error) {
	if peer == nil {
		return EncodeFrame(TunnelMagic, nil), nil
	}
	payload, err := codec.WrapEnvelope(peer)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(TunnelMagic, payload), nil
}

// TunnelWriter 在隧道一侧写出唯一的一帧
type TunnelWriter struct {
	frame   []byte
	written bool
}

// NewTunnelWriter 创建写端，peer 为 nil 表示告知对端"没有身份"
func NewTunnelWriter(peer *types.PeerIdentity) (*TunnelWriter, error) {
	frame, err := EncodeTunnelFrame(peer)
	if err != nil {
		return nil, err
	}
	return &TunnelWriter{frame: frame}, nil
}

// OnOutboundBytes 第一次调用时把帧插到 buf 最前面
func (w *TunnelWriter) OnOutboundBytes(buf *Buffer) Status {
	if !w.written {
		buf.Prepend(w.frame)
		w.written = true
	}
	return StatusContinue
}

// Written 帧是否已写出
func (w *TunnelWriter) Written() bool {
	return w.written
}

// TunnelReader 在隧道另一侧读出唯一的一帧
type TunnelReader struct {
	maxPayload uint32
	current    State
	payloadLen uint32
	peer       *types.PeerIdentity
}

// NewTunnelReader 创建读端，maxPayload 为 0 表示不限
func NewTunnelReader(maxPayload uint32) *TunnelReader {
	return &TunnelReader{maxPayload: maxPayload, current: StateReadingHeader}
}

// Feed 处理隧道字节
//
// 长度为 0 的帧是合法的"对端没有身份"，进入 Done 且 Peer 返回 nil。
// 帧读完之后的字节原样保留在 buf 中。
func (r *TunnelReader) Feed(buf *Buffer, endStream bool) Status {
	switch r.current {
	case StateDone, StateInvalid:
		return StatusContinue

	case StateReadingHeader, StateNeedMoreHeaderBytes:
		raw, ok := buf.Peek(HeaderSize)
		if !ok {
			r.current = StateNeedMoreHeaderBytes
			return r.waitOrFail(endStream)
		}
		h, _ := ParseHeader(raw)
		if err := h.Check(TunnelMagic, r.maxPayload); err != nil {
			logger.Debug("隧道帧头无效", "err", err)
			r.current = StateInvalid
			return StatusNoPeer
		}
		buf.Drain(HeaderSize)
		r.payloadLen = h.Length
		r.current = StateReadingPayload
		fallthrough

	case StateReadingPayload, StateNeedMorePayloadBytes:
		if r.payloadLen == 0 {
			r.current = StateDone
			return StatusContinue
		}
		if _, ok := buf.Peek(int(r.payloadLen)); !ok {
			r.current = StateNeedMorePayloadBytes
			return r.waitOrFail(endStream)
		}
		peer, err := codec.UnwrapEnvelope(buf.Take(int(r.payloadLen)))
		if err != nil {
			logger.Debug("隧道负载解码失败", "err", err)
			r.current = StateInvalid
			return StatusNoPeer
		}
		r.peer = peer
		r.current = StateDone
	}
	return StatusContinue
}

func (r *TunnelReader) waitOrFail(endStream bool) Status {
	if endStream {
		r.current = StateInvalid
		return StatusNoPeer
	}
	return StatusStop
}

// State 当前状态
func (r *TunnelReader) State() State {
	return r.current
}

// Peer 读到的对端身份；未完成、失败或对端声明没有身份时为 nil
func (r *TunnelReader) Peer() *types.PeerIdentity {
	return r.peer
}
