package exchange

import (
	"errors"

	"github.com/dep2p/go-peermeta/internal/core/codec"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("core/exchange")

// Exchange 单个连接的交换状态机
//
// 非并发安全：一个连接只在一个 worker 上处理。
type Exchange struct {
	conn     pkgif.Connection
	state    pkgif.FilterState
	fallback pkgif.MetadataProvider
	metrics  pkgif.MetricsRecorder

	dir        types.Direction
	protocol   string
	frame      []byte
	maxPayload uint32

	current    State
	payloadLen uint32
}

// State 当前状态
func (e *Exchange) State() State {
	return e.current
}

// OnInboundBytes 处理对端发来的字节
//
// 数据不足时返回 StatusStop 且不消费任何字节；
// 交换成功后帧被消费，剩余应用数据留在 buf 中。
func (e *Exchange) OnInboundBytes(buf *Buffer, endStream bool) Status {
	switch e.current {
	case StateDone, StateInvalid, StateDisabled:
		return StatusContinue

	case StateProtocolUnconfirmed:
		if !e.confirmProtocol() {
			return StatusNoPeer
		}
		fallthrough

	case StateWriteMetadata:
		e.writeMetadata(e.conn.InjectWrite)
		fallthrough

	case StateReadingHeader, StateNeedMoreHeaderBytes:
		if !e.readHeader(buf) {
			return e.waitOrFail(endStream)
		}
		fallthrough

	case StateReadingPayload, StateNeedMorePayloadBytes:
		if !e.readPayload(buf) {
			return e.waitOrFail(endStream)
		}
	}
	return StatusContinue
}

// OnOutboundBytes 处理发往对端的字节
//
// 协商通过后把本端身份帧插到 buf 最前面，整个连接只写一次。
func (e *Exchange) OnOutboundBytes(buf *Buffer, _ bool) Status {
	switch e.current {
	case StateProtocolUnconfirmed:
		if !e.confirmProtocol() {
			return StatusNoPeer
		}
		fallthrough
	case StateWriteMetadata:
		e.writeMetadata(buf.Prepend)
	}
	return StatusContinue
}

// waitOrFail 读取未完成时决定暂停还是失败
func (e *Exchange) waitOrFail(endStream bool) Status {
	if e.current == StateInvalid {
		return StatusNoPeer
	}
	if endStream {
		// 对端不会再发数据，不能让后续过滤器一直等下去
		e.fail(OutcomeEndOfStream, nil)
		return StatusNoPeer
	}
	return StatusStop
}

func (e *Exchange) confirmProtocol() bool {
	if got := e.conn.NegotiatedProtocol(); got != e.protocol {
		logger.Debug("协商协议不匹配，跳过交换", "got", got, "want", e.protocol)
		e.fail(OutcomeProtocolMismatch, nil)
		return false
	}
	e.current = StateWriteMetadata
	return true
}

func (e *Exchange) writeMetadata(write func([]byte)) {
	if e.current != StateWriteMetadata {
		return
	}
	frame := make([]byte, len(e.frame))
	copy(frame, e.frame)
	write(frame)
	e.current = StateReadingHeader
}

func (e *Exchange) readHeader(buf *Buffer) bool {
	raw, ok := buf.Peek(HeaderSize)
	if !ok {
		e.current = StateNeedMoreHeaderBytes
		return false
	}
	h, _ := ParseHeader(raw)
	if err := h.Check(ExchangeMagic, e.maxPayload); err != nil {
		outcome := OutcomeBadMagic
		if errors.Is(err, ErrPayloadTooLarge) {
			outcome = OutcomeOversized
		}
		e.fail(outcome, err)
		return false
	}
	buf.Drain(HeaderSize)
	e.payloadLen = h.Length
	e.current = StateReadingPayload
	return true
}

func (e *Exchange) readPayload(buf *Buffer) bool {
	if _, ok := buf.Peek(int(e.payloadLen)); !ok {
		e.current = StateNeedMorePayloadBytes
		return false
	}
	peer, err := codec.UnwrapEnvelope(buf.Take(int(e.payloadLen)))
	if err != nil {
		e.fail(OutcomeDecodeError, err)
		return false
	}
	e.state.SetOnce(e.dir.StateKey(), peer)
	e.metrics.ExchangeOutcome(e.dir, OutcomeFound)
	e.current = StateDone
	logger.Debug("交换得到对端身份", "direction", e.dir, "peer", peer)
	return true
}

// fail 进入 Invalid，尝试按对端地址兜底，否则记录 peer_not_found
func (e *Exchange) fail(outcome string, err error) {
	e.current = StateInvalid
	e.metrics.ExchangeOutcome(e.dir, outcome)
	if err != nil {
		logger.Debug("交换失败", "direction", e.dir, "outcome", outcome, "err", err)
	}

	if e.fallback != nil {
		if remote := e.conn.RemoteAddr(); remote.IsValid() {
			if peer := e.fallback.GetMetadata(remote.Addr()); peer != nil {
				e.state.SetOnce(e.dir.StateKey(), peer)
				e.metrics.ExchangeOutcome(e.dir, OutcomeFallback)
				return
			}
		}
	}
	e.state.SetOnce(types.PeerNotFoundKey, true)
}
