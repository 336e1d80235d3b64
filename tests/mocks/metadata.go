package mocks

import (
	"net/netip"

	"github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var _ interfaces.MetadataProvider = (*MockMetadataProvider)(nil)

// FetchCall 一次 Fetch 调用
type FetchCall struct {
	Addr     netip.Addr
	Callback interfaces.FetchCallback
}

// MockMetadataProvider 基于内存 map 的地址查询
//
// Fetch 未命中时只记录调用，不回调；测试可通过 FetchCalls 手动触发回调。
type MockMetadataProvider struct {
	Peers map[netip.Addr]*types.PeerIdentity

	// 可覆盖的方法
	GetMetadataFunc func(addr netip.Addr) *types.PeerIdentity

	// 调用记录
	GetMetadataCalls []netip.Addr
	FetchCalls       []FetchCall
}

// NewMockMetadataProvider 创建空 provider
func NewMockMetadataProvider() *MockMetadataProvider {
	return &MockMetadataProvider{Peers: make(map[netip.Addr]*types.PeerIdentity)}
}

// Set 设置地址对应的身份
func (m *MockMetadataProvider) Set(addr string, peer *types.PeerIdentity) {
	m.Peers[netip.MustParseAddr(addr)] = peer
}

// GetMetadata 同步查询
func (m *MockMetadataProvider) GetMetadata(addr netip.Addr) *types.PeerIdentity {
	m.GetMetadataCalls = append(m.GetMetadataCalls, addr)
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(addr)
	}
	return m.Peers[addr]
}

// Fetch 命中时同步回调，否则记录调用
func (m *MockMetadataProvider) Fetch(addr netip.Addr, cb interfaces.FetchCallback) {
	if p, ok := m.Peers[addr]; ok {
		cb(p)
		return
	}
	m.FetchCalls = append(m.FetchCalls, FetchCall{Addr: addr, Callback: cb})
}
