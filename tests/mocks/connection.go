package mocks

import (
	"net/netip"

	"github.com/dep2p/go-peermeta/pkg/interfaces"
)

var _ interfaces.Connection = (*MockConnection)(nil)

// MockConnection 模拟 Connection 接口实现
type MockConnection struct {
	// 基本属性
	Protocol string
	Remote   netip.AddrPort
	Local    netip.AddrPort

	// 可覆盖的方法
	NegotiatedProtocolFunc func() string

	// 调用记录
	Injected [][]byte
}

// NewMockConnection 创建协商结果为 protocol 的连接
func NewMockConnection(protocol string) *MockConnection {
	return &MockConnection{
		Protocol: protocol,
		Remote:   netip.MustParseAddrPort("10.0.0.2:41234"),
		Local:    netip.MustParseAddrPort("10.0.0.1:8080"),
	}
}

// NegotiatedProtocol 返回协商协议
func (m *MockConnection) NegotiatedProtocol() string {
	if m.NegotiatedProtocolFunc != nil {
		return m.NegotiatedProtocolFunc()
	}
	return m.Protocol
}

// RemoteAddr 返回对端地址
func (m *MockConnection) RemoteAddr() netip.AddrPort {
	return m.Remote
}

// LocalAddr 返回本端地址
func (m *MockConnection) LocalAddr() netip.AddrPort {
	return m.Local
}

// InjectWrite 记录注入的数据
func (m *MockConnection) InjectWrite(data []byte) {
	m.Injected = append(m.Injected, data)
}

// InjectedBytes 返回所有注入数据的拼接
func (m *MockConnection) InjectedBytes() []byte {
	var out []byte
	for _, b := range m.Injected {
		out = append(out, b...)
	}
	return out
}
