package types

import "errors"

var (
	// ErrUnknownWorkloadType 未知的工作负载类型
	ErrUnknownWorkloadType = errors.New("unknown workload type")

	// ErrUnknownDirection 未知的方向
	ErrUnknownDirection = errors.New("unknown direction")

	// ErrInvalidAddress 无效地址
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAddressKey 地址键长度既不是 4 也不是 16
	ErrInvalidAddressKey = errors.New("invalid address key length")
)
