package types

// 共享状态存储中的固定键
//
// 宿主代理的连接级/请求级键值存储使用这些键保存发现结果，
// 遥测与鉴权组件按相同的键读取。
const (
	// DownstreamPeerKey 下游对端身份
	DownstreamPeerKey = "downstream_peer"

	// UpstreamPeerKey 上游对端身份
	UpstreamPeerKey = "upstream_peer"

	// PeerNotFoundKey 未能获得对端身份的标记
	PeerNotFoundKey = "peer_not_found"
)
