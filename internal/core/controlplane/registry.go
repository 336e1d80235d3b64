package controlplane

import (
	"net/netip"
	"slices"
	"strings"
	"sync"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// watchBuffer 每个观察者的更新缓冲
const watchBuffer = 64

// Registry 内存工作负载登记表
//
// 并发安全。变更以 Delta 广播给所有观察者；观察者落后时丢弃积压，
// 改为收到一次全量。
type Registry struct {
	mu       sync.Mutex
	records  map[string]types.WorkloadRecord
	byAddr   map[netip.Addr]string
	watchers map[chan types.Update]struct{}
}

// NewRegistry 创建登记表
func NewRegistry(records ...types.WorkloadRecord) *Registry {
	r := &Registry{
		records:  make(map[string]types.WorkloadRecord),
		byAddr:   make(map[netip.Addr]string),
		watchers: make(map[chan types.Update]struct{}),
	}
	for _, rec := range records {
		r.putLocked(rec)
	}
	return r
}

// Upsert 新增或替换记录
func (r *Registry) Upsert(records ...types.WorkloadRecord) {
	if len(records) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	added := make([]types.WorkloadRecord, 0, len(records))
	for _, rec := range records {
		if rec.UID == "" {
			continue
		}
		added = append(added, r.putLocked(rec))
	}
	r.publishLocked(types.Update{Delta: &types.Delta{Added: added}})
}

// Remove 删除记录
func (r *Registry) Remove(uids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := make([]string, 0, len(uids))
	for _, uid := range uids {
		if r.deleteLocked(uid) {
			removed = append(removed, uid)
		}
	}
	if len(removed) > 0 {
		r.publishLocked(types.Update{Delta: &types.Delta{RemovedIDs: removed}})
	}
}

// Lookup 按地址查找记录
func (r *Registry) Lookup(addr netip.Addr) (types.WorkloadRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.byAddr[addr.Unmap()]
	if !ok {
		return types.WorkloadRecord{}, false
	}
	return r.records[uid], true
}

// Resolve 按地址生成应答增量：找到时放入 Added，否则放入 Unresolved
func (r *Registry) Resolve(addrs ...netip.Addr) *types.Delta {
	d := &types.Delta{}
	seen := make(map[string]struct{})
	for _, a := range addrs {
		rec, ok := r.Lookup(a)
		if !ok {
			d.Unresolved = append(d.Unresolved, a)
			continue
		}
		if _, dup := seen[rec.UID]; !dup {
			seen[rec.UID] = struct{}{}
			d.Added = append(d.Added, rec)
		}
	}
	return d
}

// Snapshot 当前全部记录，按 UID 排序
func (r *Registry) Snapshot() *types.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Len 记录数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Watch 注册观察者
//
// 返回的 channel 首先收到一次全量，之后是增量；调用 cancel 注销。
func (r *Registry) Watch() (<-chan types.Update, func()) {
	ch := make(chan types.Update, watchBuffer)
	r.mu.Lock()
	ch <- types.Update{Full: r.snapshotLocked()}
	r.watchers[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.watchers, ch)
			r.mu.Unlock()
		})
	}
}

func (r *Registry) putLocked(rec types.WorkloadRecord) types.WorkloadRecord {
	r.deleteLocked(rec.UID)
	rec.Addresses = slices.Clone(rec.Addresses)
	rec.Peer = rec.Peer.Clone()
	for i, a := range rec.Addresses {
		rec.Addresses[i] = a.Unmap()
		r.byAddr[rec.Addresses[i]] = rec.UID
	}
	r.records[rec.UID] = rec
	return rec
}

func (r *Registry) deleteLocked(uid string) bool {
	old, ok := r.records[uid]
	if !ok {
		return false
	}
	for _, a := range old.Addresses {
		if r.byAddr[a] == uid {
			delete(r.byAddr, a)
		}
	}
	delete(r.records, uid)
	return true
}

func (r *Registry) snapshotLocked() *types.Snapshot {
	s := &types.Snapshot{Records: make([]types.WorkloadRecord, 0, len(r.records))}
	for _, rec := range r.records {
		s.Records = append(s.Records, rec)
	}
	slices.SortFunc(s.Records, func(a, b types.WorkloadRecord) int {
		return strings.Compare(a.UID, b.UID)
	})
	return s
}

// publishLocked 只有持锁方发送，清空积压后必有空位
func (r *Registry) publishLocked(u types.Update) {
	for ch := range r.watchers {
		select {
		case ch <- u:
			continue
		default:
		}
		logger.Debug("观察者落后，改发全量")
		for len(ch) > 0 {
			select {
			case <-ch:
			default:
			}
		}
		ch <- types.Update{Full: r.snapshotLocked()}
	}
}
