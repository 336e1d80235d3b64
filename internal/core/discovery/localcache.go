package discovery

import (
	"github.com/dep2p/go-peermeta/pkg/types"
)

// LocalCache 有界的 id -> 身份 缓存
//
// 满了之后一次淘汰最早插入的四分之一，不是 LRU：命中不会调整顺序。
// 只由所属 worker 访问。
type LocalCache struct {
	max     int
	entries map[string]*types.PeerIdentity
	order   []string
}

// NewLocalCache 创建容量为 max 的缓存，max <= 0 时返回 nil（不缓存）
func NewLocalCache(max int) *LocalCache {
	if max <= 0 {
		return nil
	}
	return &LocalCache{
		max:     max,
		entries: make(map[string]*types.PeerIdentity, max),
		order:   make([]string, 0, max),
	}
}

// Get 查询
func (c *LocalCache) Get(id string) (*types.PeerIdentity, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.entries[id]
	return p, ok
}

// Put 插入，已存在时只替换值
func (c *LocalCache) Put(id string, p *types.PeerIdentity) {
	if c == nil {
		return
	}
	if _, ok := c.entries[id]; ok {
		c.entries[id] = p
		return
	}
	if len(c.entries) >= c.max {
		c.evict()
	}
	c.entries[id] = p
	c.order = append(c.order, id)
}

// evict 淘汰最早的四分之一（至少一个）
func (c *LocalCache) evict() {
	n := len(c.order) / 4
	if n == 0 {
		n = 1
	}
	for _, id := range c.order[:n] {
		delete(c.entries, id)
	}
	rest := make([]string, len(c.order)-n, c.max)
	copy(rest, c.order[n:])
	c.order = rest
	logger.Debug("本地缓存已满，批量淘汰", "evicted", n, "remaining", len(c.order))
}

// Len 条目数
func (c *LocalCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
