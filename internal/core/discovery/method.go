package discovery

import (
	"encoding/base64"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/codec"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("core/discovery")

// Method 发现方法
type Method interface {
	// Name 方法名（同配置中的名字）
	Name() string

	// Derive 尝试得到对端身份，得不到时返回 nil
	Derive(req *Request) *types.PeerIdentity

	// Remove 清除本方法在请求上的传输痕迹
	Remove(req *Request)
}

// ============================================================================
//                              baggage
// ============================================================================

// BaggageMethod 从 baggage 请求头解码
type BaggageMethod struct{}

// Name 实现 Method
func (BaggageMethod) Name() string { return config.MethodBaggage }

// Derive 实现 Method
//
// 头不存在或其中没有任何已知 token 时返回 nil。
func (BaggageMethod) Derive(req *Request) *types.PeerIdentity {
	v := req.Headers.Get(HeaderBaggage)
	if v == "" {
		return nil
	}
	p := codec.Decode(v)
	if p.Equal(&types.PeerIdentity{}) {
		return nil
	}
	return p
}

// Remove 实现 Method
//
// baggage 头同时承载链路追踪上下文，保留。
func (BaggageMethod) Remove(*Request) {}

// ============================================================================
//                              workload_discovery
// ============================================================================

// WorkloadDiscoveryMethod 按对端地址查询分布式缓存
type WorkloadDiscoveryMethod struct {
	provider pkgif.MetadataProvider
	prefetch bool
}

// NewWorkloadDiscoveryMethod 创建方法
//
// prefetch 为 true 时，未命中会触发一次异步解析，
// 让同一对端的后续请求能够命中。
func NewWorkloadDiscoveryMethod(provider pkgif.MetadataProvider, prefetch bool) *WorkloadDiscoveryMethod {
	return &WorkloadDiscoveryMethod{provider: provider, prefetch: prefetch}
}

// Name 实现 Method
func (m *WorkloadDiscoveryMethod) Name() string { return config.MethodWorkloadDiscovery }

// Derive 实现 Method
func (m *WorkloadDiscoveryMethod) Derive(req *Request) *types.PeerIdentity {
	addr, ok := req.PeerAddress()
	if !ok {
		return nil
	}
	if p := m.provider.GetMetadata(addr); p != nil {
		return p
	}
	if m.prefetch {
		m.provider.Fetch(addr, func(*types.PeerIdentity) {})
	}
	return nil
}

// Remove 实现 Method
func (m *WorkloadDiscoveryMethod) Remove(*Request) {}

// ============================================================================
//                              mx_headers
// ============================================================================

// MXHeaderMethod 旧版 id + 文档请求头对
//
// 文档解码结果按 id 缓存在 LocalCache 中，同一对端的后续请求跳过解码。
type MXHeaderMethod struct {
	cache *LocalCache
}

// NewMXHeaderMethod 创建方法，cache 可为 nil
func NewMXHeaderMethod(cache *LocalCache) *MXHeaderMethod {
	return &MXHeaderMethod{cache: cache}
}

// Name 实现 Method
func (m *MXHeaderMethod) Name() string { return config.MethodMXHeaders }

// Derive 实现 Method
func (m *MXHeaderMethod) Derive(req *Request) *types.PeerIdentity {
	id := req.Headers.Get(HeaderPeerMetadataID)
	if id != "" {
		if p, ok := m.cache.Get(id); ok {
			return p
		}
	}
	encoded := req.Headers.Get(HeaderPeerMetadata)
	if encoded == "" {
		return nil
	}
	p, err := DecodeMXHeader(encoded)
	if err != nil {
		logger.Debug("旧版身份头解码失败", "id", id, "err", err)
		return nil
	}
	if id != "" {
		m.cache.Put(id, p)
	}
	return p
}

// Remove 实现 Method
func (m *MXHeaderMethod) Remove(req *Request) {
	req.Headers.Del(HeaderPeerMetadataID)
	req.Headers.Del(HeaderPeerMetadata)
}

// EncodeMXHeader 把身份编码为旧版文档头的值
func EncodeMXHeader(p *types.PeerIdentity) (string, error) {
	b, err := codec.MarshalDocument(codec.ToDocument(p))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeMXHeader 解码旧版文档头的值
func DecodeMXHeader(v string) (*types.PeerIdentity, error) {
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, err
	}
	doc, err := codec.UnmarshalDocument(raw)
	if err != nil {
		return nil, err
	}
	return codec.FromDocument(doc)
}
