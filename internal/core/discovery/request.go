package discovery

import (
	"net/http"
	"net/netip"

	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// 请求头名称
const (
	// HeaderBaggage 文本格式身份
	HeaderBaggage = "baggage"
	// HeaderPeerMetadataID 旧版身份标识
	HeaderPeerMetadataID = "x-envoy-peer-metadata-id"
	// HeaderPeerMetadata 旧版身份文档（base64）
	HeaderPeerMetadata = "x-envoy-peer-metadata"
)

// OriginalDstKey 内部隧道主机上保存真实目的地址的属性名
const OriginalDstKey = "tunnel.original_dst"

// Request 一次发现/传播调用的上下文
type Request struct {
	// Headers 请求头（下游）或响应头（上游）
	Headers http.Header

	// Direction 由 Chain / Propagator 填写
	Direction types.Direction

	// DownstreamRemote 下游连接的对端地址
	DownstreamRemote netip.AddrPort

	// UpstreamHost 已选定的上游主机，可为 nil
	UpstreamHost *pkgif.UpstreamHost

	// Cluster 上游集群，可为 nil
	Cluster *pkgif.UpstreamCluster

	// State 请求级共享状态，可为 nil
	State pkgif.FilterState
}

// PeerAddress 返回该方向上对端的网络地址
//
// 下游取连接对端地址；上游取主机地址，主机是内部监听器时
// 改用其属性中保存的真实目的地址。
func (r *Request) PeerAddress() (netip.Addr, bool) {
	if r.Direction == types.Downstream {
		if !r.DownstreamRemote.IsValid() {
			return netip.Addr{}, false
		}
		return r.DownstreamRemote.Addr().Unmap(), true
	}

	h := r.UpstreamHost
	if h == nil {
		return netip.Addr{}, false
	}
	if h.Internal {
		dst, ok := h.Metadata[OriginalDstKey]
		if !ok {
			return netip.Addr{}, false
		}
		if ap, err := netip.ParseAddrPort(dst); err == nil {
			return ap.Addr().Unmap(), true
		}
		if a, err := netip.ParseAddr(dst); err == nil {
			return a.Unmap(), true
		}
		logger.Debug("内部主机的目的地址无效", "value", dst)
		return netip.Addr{}, false
	}
	if !h.Address.IsValid() {
		return netip.Addr{}, false
	}
	return h.Address.Addr().Unmap(), true
}
