package discovery

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/codec"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// PropagationMethod 传播方法
type PropagationMethod interface {
	// Name 方法名（同配置中的名字）
	Name() string

	// Inject 把本端身份写入请求头
	Inject(req *Request)
}

// BaggagePropagation 写 baggage 头
type BaggagePropagation struct {
	value string
}

// NewBaggagePropagation 预先编码本端身份
func NewBaggagePropagation(self *types.PeerIdentity) *BaggagePropagation {
	return &BaggagePropagation{value: codec.Encode(self)}
}

// Name 实现 PropagationMethod
func (m *BaggagePropagation) Name() string { return config.MethodBaggage }

// Inject 实现 PropagationMethod
func (m *BaggagePropagation) Inject(req *Request) {
	req.Headers.Set(HeaderBaggage, m.value)
}

// MXHeaderPropagation 写旧版 id + 文档头对
type MXHeaderPropagation struct {
	id    string
	value string
}

// NewMXHeaderPropagation 预先编码本端身份
func NewMXHeaderPropagation(self *types.PeerIdentity) (*MXHeaderPropagation, error) {
	value, err := EncodeMXHeader(self)
	if err != nil {
		return nil, fmt.Errorf("encode peer metadata header: %w", err)
	}
	return &MXHeaderPropagation{id: PeerMetadataID(self, value), value: value}, nil
}

// Name 实现 PropagationMethod
func (m *MXHeaderPropagation) Name() string { return config.MethodMXHeaders }

// Inject 实现 PropagationMethod
func (m *MXHeaderPropagation) Inject(req *Request) {
	req.Headers.Set(HeaderPeerMetadataID, m.id)
	req.Headers.Set(HeaderPeerMetadata, m.value)
}

// PeerMetadataID 旧版身份标识
//
// 形如 "<owning-name>.<namespace>~<文档哈希>"，身份内容变化时标识随之变化，
// 对端的本地缓存不会返回过期结果。
func PeerMetadataID(self *types.PeerIdentity, encoded string) string {
	name, ns := "", ""
	if self != nil {
		name, ns = self.OwningName(), self.NamespaceName
	}
	return fmt.Sprintf("%s.%s~%016x", name, ns, xxhash.Sum64String(encoded))
}

// Propagator 一个方向上的传播链
type Propagator struct {
	dir          types.Direction
	methods      []PropagationMethod
	skipExternal bool
	skipClusters map[string]struct{}
	metrics      pkgif.MetricsRecorder
}

// NewPropagator 创建传播链
func NewPropagator(dir types.Direction, methods []PropagationMethod, cfg config.PropagationConfig, metrics pkgif.MetricsRecorder) *Propagator {
	skip := make(map[string]struct{}, len(cfg.SkipClusters))
	for _, c := range cfg.SkipClusters {
		skip[c] = struct{}{}
	}
	return &Propagator{
		dir:          dir,
		methods:      methods,
		skipExternal: cfg.SkipExternalClusters,
		skipClusters: skip,
		metrics:      pkgif.OrNop(metrics),
	}
}

// Skip 该请求是否跳过传播
func (p *Propagator) Skip(req *Request) bool {
	c := req.Cluster
	if c == nil {
		return false
	}
	if p.skipExternal && c.External {
		return true
	}
	_, ok := p.skipClusters[c.Name]
	return ok
}

// Propagate 依次执行所有传播方法，跳过时返回 false
func (p *Propagator) Propagate(req *Request) bool {
	req.Direction = p.dir
	if p.Skip(req) {
		logger.Debug("跳过传播", "direction", p.dir, "cluster", req.Cluster.Name)
		return false
	}
	for _, m := range p.methods {
		m.Inject(req)
		p.metrics.Propagated(p.dir, m.Name())
	}
	return len(p.methods) > 0
}
