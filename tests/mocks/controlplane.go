package mocks

import (
	"context"
	"net/netip"
	"sync"

	"github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var _ interfaces.ControlPlaneSource = (*MockControlPlaneSource)(nil)

// MockControlPlaneSource 可手动推送更新的控制面
//
// Subscribe 阻塞直到 ctx 取消；Push 把更新交给当前订阅者。
type MockControlPlaneSource struct {
	mu         sync.Mutex
	handler    interfaces.UpdateHandler
	subscribed chan struct{}

	// 可覆盖的方法
	ResolveFunc func(ctx context.Context, addr netip.Addr) error

	// 调用记录
	ResolveCalls []netip.Addr
}

// NewMockControlPlaneSource 创建控制面
func NewMockControlPlaneSource() *MockControlPlaneSource {
	return &MockControlPlaneSource{subscribed: make(chan struct{})}
}

// Subscribe 实现 ControlPlaneSource
func (m *MockControlPlaneSource) Subscribe(ctx context.Context, handler interfaces.UpdateHandler) error {
	m.mu.Lock()
	m.handler = handler
	close(m.subscribed)
	m.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

// Subscribed 订阅建立后关闭的 channel
func (m *MockControlPlaneSource) Subscribed() <-chan struct{} {
	return m.subscribed
}

// Push 推送一个更新，尚未订阅时返回 false
func (m *MockControlPlaneSource) Push(u types.Update) bool {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		return false
	}
	h(u)
	return true
}

// Resolve 实现 ControlPlaneSource
func (m *MockControlPlaneSource) Resolve(ctx context.Context, addr netip.Addr) error {
	m.mu.Lock()
	m.ResolveCalls = append(m.ResolveCalls, addr)
	m.mu.Unlock()
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, addr)
	}
	return nil
}

// Resolved 返回 Resolve 调用记录的副本
func (m *MockControlPlaneSource) Resolved() []netip.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]netip.Addr(nil), m.ResolveCalls...)
}
