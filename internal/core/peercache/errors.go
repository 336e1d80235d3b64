package peercache

import "errors"

var (
	// ErrNotStarted 缓存尚未启动
	ErrNotStarted = errors.New("peer cache not started")

	// ErrAlreadyStarted 缓存已启动
	ErrAlreadyStarted = errors.New("peer cache already started")

	// ErrInvalidShard 分片序号越界
	ErrInvalidShard = errors.New("invalid shard index")

	// ErrEmptyUpdate 更新既没有全量也没有增量
	ErrEmptyUpdate = errors.New("empty update")
)
