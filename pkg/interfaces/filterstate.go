// Package interfaces 定义 go-peermeta 公共接口
//
// 本文件定义 FilterState 接口，即宿主代理提供的共享状态存储。
package interfaces

// FilterState 连接级/请求级共享键值存储
//
// 由宿主代理提供，生命周期与连接（TCP 交换）或请求（HTTP 发现）一致。
// 发现到的对端身份按 types.DownstreamPeerKey / types.UpstreamPeerKey 写入，
// 失败时写入 types.PeerNotFoundKey。
//
// 实现不要求并发安全：同一连接/请求只在一个 worker 上处理。
type FilterState interface {
	// SetOnce 写入键值，键已存在时不覆盖并返回 false
	SetOnce(key string, value any) bool

	// Get 读取键值
	Get(key string) (any, bool)

	// Has 键是否存在
	Has(key string) bool
}
