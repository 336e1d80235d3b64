package codec

import "errors"

var (
	// ErrMalformedBinary 二进制记录无法解析
	ErrMalformedBinary = errors.New("malformed binary peer record")

	// ErrInvalidDocument 结构化文档字段类型不符
	ErrInvalidDocument = errors.New("invalid peer document")

	// ErrUnexpectedEnvelope 信封类型不是结构化文档
	ErrUnexpectedEnvelope = errors.New("unexpected envelope type")

	// ErrEmptyPayload 负载为空
	ErrEmptyPayload = errors.New("empty payload")
)
