package discovery

import (
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// Chain 一个方向上的发现链
type Chain struct {
	dir     types.Direction
	methods []Method
	metrics pkgif.MetricsRecorder
}

// NewChain 创建发现链
func NewChain(dir types.Direction, methods []Method, metrics pkgif.MetricsRecorder) *Chain {
	return &Chain{dir: dir, methods: methods, metrics: pkgif.OrNop(metrics)}
}

// Direction 链的方向
func (c *Chain) Direction() types.Direction {
	return c.dir
}

// Methods 返回方法名列表
func (c *Chain) Methods() []string {
	names := make([]string, len(c.methods))
	for i, m := range c.methods {
		names[i] = m.Name()
	}
	return names
}

// Discover 依次尝试各方法，返回第一个得到的身份
//
// 之后每个方法都执行 Remove。req.State 非空时，结果写入该方向的槽位，
// 未找到时写入 peer_not_found；槽位已有值时写入为空操作。
func (c *Chain) Discover(req *Request) *types.PeerIdentity {
	req.Direction = c.dir

	var (
		found *types.PeerIdentity
		by    string
	)
	for _, m := range c.methods {
		if p := m.Derive(req); p != nil {
			found, by = p, m.Name()
			break
		}
	}
	for _, m := range c.methods {
		m.Remove(req)
	}

	c.metrics.DiscoveryResult(c.dir, by)
	if req.State != nil {
		if found != nil {
			req.State.SetOnce(c.dir.StateKey(), found)
		} else {
			req.State.SetOnce(types.PeerNotFoundKey, true)
		}
	}
	if found != nil {
		logger.Debug("发现对端身份", "direction", c.dir, "method", by, "peer", found)
	}
	return found
}
