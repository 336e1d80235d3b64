package mocks

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var _ interfaces.MetricsRecorder = (*MockRecorder)(nil)

// MockRecorder 按 "类别/标签" 计数的指标记录器
//
// 键的格式：
//
//	exchange/<direction>/<outcome>
//	discovery/<direction>/<method>
//	propagate/<direction>/<method>
//	cache/hit, cache/miss
//	update/<kind>
//	resolve/<outcome>
type MockRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMockRecorder 创建记录器
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{counts: make(map[string]int)}
}

func (m *MockRecorder) inc(key string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key] += n
}

// Count 返回键的计数
func (m *MockRecorder) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

// ExchangeOutcome 实现 MetricsRecorder
func (m *MockRecorder) ExchangeOutcome(dir types.Direction, outcome string) {
	m.inc(fmt.Sprintf("exchange/%s/%s", dir, outcome), 1)
}

// DiscoveryResult 实现 MetricsRecorder
func (m *MockRecorder) DiscoveryResult(dir types.Direction, method string) {
	if method == "" {
		method = "none"
	}
	m.inc(fmt.Sprintf("discovery/%s/%s", dir, method), 1)
}

// Propagated 实现 MetricsRecorder
func (m *MockRecorder) Propagated(dir types.Direction, method string) {
	m.inc(fmt.Sprintf("propagate/%s/%s", dir, method), 1)
}

// CacheLookup 实现 MetricsRecorder
func (m *MockRecorder) CacheLookup(hit bool) {
	if hit {
		m.inc("cache/hit", 1)
	} else {
		m.inc("cache/miss", 1)
	}
}

// CacheUpdate 实现 MetricsRecorder
func (m *MockRecorder) CacheUpdate(kind string, records int) {
	m.inc("update/"+kind, 1)
}

// ResolveRequest 实现 MetricsRecorder
func (m *MockRecorder) ResolveRequest(outcome string) {
	m.inc("resolve/"+outcome, 1)
}
