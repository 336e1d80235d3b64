// Package interfaces 定义 go-peermeta 公共接口
//
// 本文件定义 MetricsRecorder 接口，各组件通过它上报计数，
// 具体实现（Prometheus）见 internal/core/metrics。
package interfaces

import "github.com/dep2p/go-peermeta/pkg/types"

// MetricsRecorder 指标记录接口
//
// 所有方法都在热路径上调用，实现必须无阻塞且并发安全。
// 组件拿到 nil 时使用 NopRecorder。
type MetricsRecorder interface {
	// ExchangeOutcome 记录一次字节流交换的结果
	ExchangeOutcome(dir types.Direction, outcome string)

	// DiscoveryResult 记录发现链结果，method 为空表示所有方法都未命中
	DiscoveryResult(dir types.Direction, method string)

	// Propagated 记录一次传播
	Propagated(dir types.Direction, method string)

	// CacheLookup 记录分布式缓存查询
	CacheLookup(hit bool)

	// CacheUpdate 记录控制面更新，kind 为 "full" 或 "delta"
	CacheUpdate(kind string, records int)

	// ResolveRequest 记录按需解析请求，outcome 取 "sent"、"throttled"、"failed"、"local"、"dropped" 之一
	ResolveRequest(outcome string)
}

// NopRecorder 不记录任何指标
type NopRecorder struct{}

func (NopRecorder) ExchangeOutcome(types.Direction, string) {}
func (NopRecorder) DiscoveryResult(types.Direction, string) {}
func (NopRecorder) Propagated(types.Direction, string) {}
func (NopRecorder) CacheLookup(bool) {}
func (NopRecorder) CacheUpdate(string, int) {}
func (NopRecorder) ResolveRequest(string) {}

// OrNop 返回 r，r 为 nil 时返回 NopRecorder
func OrNop(r MetricsRecorder) MetricsRecorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}
