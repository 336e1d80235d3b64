package interfaces

import (
	"net/netip"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// FetchCallback 异步查询回调，peer 为 nil 表示确认不存在
type FetchCallback func(peer *types.PeerIdentity)

// MetadataProvider 地址 -> 身份 查询接口
//
// 由分布式缓存的单个分片实现。两个方法都只能在分片所属的 worker 上调用。
type MetadataProvider interface {
	// GetMetadata 同步查询，未知或确认不存在时返回 nil
	GetMetadata(addr netip.Addr) *types.PeerIdentity

	// Fetch 命中时同步回调；未命中时排队，等控制面应答后按入队顺序回调
	Fetch(addr netip.Addr, cb FetchCallback)
}
