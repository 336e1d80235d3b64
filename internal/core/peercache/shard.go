package peercache

import (
	"net/netip"
	"slices"
	"strings"

	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// 确保实现了接口
var _ pkgif.MetadataProvider = (*Shard)(nil)

// Shard 单个 worker 上的缓存副本
//
// 所有方法只能在所属 worker 的循环上调用。
type Shard struct {
	index   int
	cache   *Cache
	metrics pkgif.MetricsRecorder

	byAddr  map[types.AddressKey]entry
	byID    map[string][]types.AddressKey
	pending map[types.AddressKey]*waiters
}

// waiters 一个地址上等待中的回调
type waiters struct {
	cbs []pkgif.FetchCallback
	// requested 已有解析请求送达控制循环且尚无结论
	requested bool
}

func newShard(index int, cache *Cache, metrics pkgif.MetricsRecorder) *Shard {
	return &Shard{
		index:   index,
		cache:   cache,
		metrics: metrics,
		byAddr:  make(map[types.AddressKey]entry),
		byID:    make(map[string][]types.AddressKey),
		pending: make(map[types.AddressKey]*waiters),
	}
}

// Index 分片序号
func (s *Shard) Index() int {
	return s.index
}

// GetMetadata 同步查询，未知或确认不存在时返回 nil
func (s *Shard) GetMetadata(addr netip.Addr) *types.PeerIdentity {
	key, err := types.KeyFromAddr(addr)
	if err != nil {
		return nil
	}
	e, ok := s.byAddr[key]
	s.metrics.CacheLookup(ok && e.peer != nil)
	return e.peer
}

// Fetch 命中（包括确认不存在）时同步回调；否则入队并请求按需解析
//
// 不会阻塞：每个地址同时只有一个解析请求，请求投递失败时丢弃，
// 由下一次未命中重新发起。
func (s *Shard) Fetch(addr netip.Addr, cb pkgif.FetchCallback) {
	key, err := types.KeyFromAddr(addr)
	if err != nil {
		cb(nil)
		return
	}
	if e, ok := s.byAddr[key]; ok {
		s.metrics.CacheLookup(e.peer != nil)
		cb(e.peer)
		return
	}
	s.metrics.CacheLookup(false)
	w, ok := s.pending[key]
	if !ok {
		w = &waiters{}
		s.pending[key] = w
	}
	w.cbs = append(w.cbs, cb)
	if !w.requested {
		w.requested = s.cache.requestResolve(s.index, key)
	}
}

// rearm 请求没有得到结论（限速、失败、被丢弃），允许下一次未命中重新请求
func (s *Shard) rearm(key types.AddressKey) {
	if w, ok := s.pending[key]; ok {
		w.requested = false
	}
}

// Len 地址条目数
func (s *Shard) Len() int {
	return len(s.byAddr)
}

// PendingLen 等待中的地址数
func (s *Shard) PendingLen() int {
	return len(s.pending)
}

// applySnapshot 一次性替换两个 map，然后触发已有结果的回调
//
// 全量更新清空了控制循环上的未完成标记，仍在等待的地址允许重新请求。
func (s *Shard) applySnapshot(idx *snapshotIndex) {
	s.byAddr, s.byID = idx.clone()
	for key, w := range s.pending {
		if _, ok := s.byAddr[key]; ok {
			s.flush(key)
			continue
		}
		w.requested = false
	}
}

// applyDelta 先删除再合并，然后触发涉及地址的回调
func (s *Shard) applyDelta(idx *deltaIndex) {
	for _, uid := range idx.removed {
		s.removeRecord(uid)
	}
	for _, r := range idx.added {
		// 替换同 UID 的旧记录，旧地址可能已经不属于它
		s.removeRecord(r.uid)
		s.byID[r.uid] = r.keys
		for _, k := range r.keys {
			s.byAddr[k] = entry{uid: r.uid, peer: r.peer}
		}
	}
	for _, k := range idx.unresolved {
		if _, ok := s.byAddr[k]; !ok {
			s.byAddr[k] = entry{}
		}
	}
	for _, k := range idx.covered() {
		s.flush(k)
	}
}

// removeRecord 删除记录的全部地址；地址已被其它记录占用时保留
func (s *Shard) removeRecord(uid string) {
	keys, ok := s.byID[uid]
	if !ok {
		return
	}
	for _, k := range keys {
		if e, ok := s.byAddr[k]; ok && e.uid == uid {
			delete(s.byAddr, k)
		}
	}
	delete(s.byID, uid)
}

// flush 按入队顺序触发回调并清除队列
func (s *Shard) flush(key types.AddressKey) {
	w, ok := s.pending[key]
	if !ok {
		return
	}
	delete(s.pending, key)
	peer := s.byAddr[key].peer
	for _, cb := range w.cbs {
		cb(peer)
	}
}

// Entry 分片内容的只读视图
type Entry struct {
	Address string              `json:"address"`
	UID     string              `json:"uid,omitempty"`
	Peer    *types.PeerIdentity `json:"peer,omitempty"`
}

// Entries 返回按地址排序的全部条目
func (s *Shard) Entries() []Entry {
	out := make([]Entry, 0, len(s.byAddr))
	for k, e := range s.byAddr {
		out = append(out, Entry{Address: k.String(), UID: e.uid, Peer: e.peer})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Address, b.Address)
	})
	return out
}
