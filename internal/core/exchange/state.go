package exchange

// State 交换状态
type State int

const (
	// StateProtocolUnconfirmed 尚未检查协商结果
	StateProtocolUnconfirmed State = iota
	// StateWriteMetadata 协商通过，待写出本端身份
	StateWriteMetadata
	// StateReadingHeader 读取帧头
	StateReadingHeader
	// StateNeedMoreHeaderBytes 帧头数据不足
	StateNeedMoreHeaderBytes
	// StateReadingPayload 读取负载
	StateReadingPayload
	// StateNeedMorePayloadBytes 负载数据不足
	StateNeedMorePayloadBytes
	// StateDone 交换完成
	StateDone
	// StateInvalid 交换失败（终态）
	StateInvalid
	// StateDisabled 交换已关闭，字节原样透传（终态）
	StateDisabled
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateProtocolUnconfirmed:
		return "ProtocolUnconfirmed"
	case StateWriteMetadata:
		return "WriteMetadata"
	case StateReadingHeader:
		return "ReadingHeader"
	case StateNeedMoreHeaderBytes:
		return "NeedMoreHeaderBytes"
	case StateReadingPayload:
		return "ReadingPayload"
	case StateNeedMorePayloadBytes:
		return "NeedMorePayloadBytes"
	case StateDone:
		return "Done"
	case StateInvalid:
		return "Invalid"
	case StateDisabled:
		return "Disabled"
	default:
		return "Unknown"
	}
}

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s == StateDone || s == StateInvalid || s == StateDisabled
}

// Status 返回给宿主的处理结果
type Status int

const (
	// StatusContinue 字节继续向后传递
	StatusContinue Status = iota
	// StatusStop 数据不足，暂停传递，等待更多数据后再调用
	StatusStop
	// StatusNoPeer 交换失败，已记录兜底结果或 peer_not_found；字节继续向后传递
	StatusNoPeer
)

// String 返回状态名
func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "continue"
	case StatusStop:
		return "stop"
	case StatusNoPeer:
		return "no_peer"
	default:
		return "unknown"
	}
}

// 交换结果（指标标签）
const (
	OutcomeFound            = "found"
	OutcomeFallback         = "fallback"
	OutcomeProtocolMismatch = "protocol_mismatch"
	OutcomeBadMagic         = "bad_magic"
	OutcomeOversized        = "oversized"
	OutcomeDecodeError      = "decode_error"
	OutcomeEndOfStream      = "end_of_stream"
	OutcomeAbsent           = "absent"
)
