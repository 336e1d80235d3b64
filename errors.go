package peermeta

import "errors"

// 公共错误定义
var (
	// ErrNotStarted Agent 未启动
	ErrNotStarted = errors.New("agent not started")

	// ErrAlreadyStarted Agent 已启动
	ErrAlreadyStarted = errors.New("agent already started")

	// ErrAgentClosed Agent 已停止，不能再次启动
	ErrAgentClosed = errors.New("agent closed")

	// ErrInvalidWorker worker 序号越界
	ErrInvalidWorker = errors.New("invalid worker index")

	// ErrExchangeDisabled 配置关闭了字节流交换
	ErrExchangeDisabled = errors.New("stream exchange disabled")
)
