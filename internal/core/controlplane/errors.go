package controlplane

import "errors"

var (
	// ErrNotConnected 订阅流尚未建立
	ErrNotConnected = errors.New("control plane stream not connected")

	// ErrInvalidMessage 线上消息结构不符
	ErrInvalidMessage = errors.New("invalid control plane message")

	// ErrUnknownMode 未知控制面模式
	ErrUnknownMode = errors.New("unknown control plane mode")
)
