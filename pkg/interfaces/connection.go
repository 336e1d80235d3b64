package interfaces

import "net/netip"

// Connection 宿主代理暴露给交换状态机的连接视图
type Connection interface {
	// NegotiatedProtocol 返回带外协商（ALPN 等价物）得到的协议名，未协商时为空
	NegotiatedProtocol() string

	// RemoteAddr 对端地址
	RemoteAddr() netip.AddrPort

	// LocalAddr 本端地址
	LocalAddr() netip.AddrPort

	// InjectWrite 将数据注入出站字节流（位于尚未发送的应用数据之前）
	InjectWrite(data []byte)
}

// UpstreamHost 上游主机视图
//
// Internal 为 true 表示上游是宿主内部监听器（内部隧道），
// 此时真实目的地址保存在 Metadata 中。
type UpstreamHost struct {
	// Address 上游主机地址
	Address netip.AddrPort
	// Internal 是否为内部监听器
	Internal bool
	// Metadata 主机内部属性
	Metadata map[string]string
}

// UpstreamCluster 上游集群视图，用于传播跳过规则
type UpstreamCluster struct {
	// Name 集群名
	Name string
	// External 是否被标记为外部集群
	External bool
}
