package peercache

import (
	"maps"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// entry 地址条目
//
// peer 为 nil 表示控制面确认该地址不存在，Fetch 会直接以 nil 回调。
type entry struct {
	uid  string
	peer *types.PeerIdentity
}

// snapshotIndex 预处理后的全量更新，分片应用时复制
type snapshotIndex struct {
	byAddr map[types.AddressKey]entry
	byID   map[string][]types.AddressKey
}

// indexedRecord 预处理后的单条记录
type indexedRecord struct {
	uid  string
	keys []types.AddressKey
	peer *types.PeerIdentity
}

// deltaIndex 预处理后的增量更新
type deltaIndex struct {
	added      []indexedRecord
	removed    []string
	unresolved []types.AddressKey
}

// covered 返回增量涉及的地址键（新增与确认不存在）
func (d *deltaIndex) covered() []types.AddressKey {
	var keys []types.AddressKey
	for _, r := range d.added {
		keys = append(keys, r.keys...)
	}
	return append(keys, d.unresolved...)
}

func indexRecord(r types.WorkloadRecord) indexedRecord {
	keys := make([]types.AddressKey, 0, len(r.Addresses))
	for _, a := range r.Addresses {
		k, err := types.KeyFromAddr(a)
		if err != nil {
			logger.Debug("忽略无效地址", "uid", r.UID, "addr", a)
			continue
		}
		keys = append(keys, k)
	}
	return indexedRecord{uid: r.UID, keys: keys, peer: r.Peer}
}

func indexSnapshot(s *types.Snapshot) *snapshotIndex {
	idx := &snapshotIndex{
		byAddr: make(map[types.AddressKey]entry, len(s.Records)),
		byID:   make(map[string][]types.AddressKey, len(s.Records)),
	}
	for _, r := range s.Records {
		if r.Peer == nil {
			continue
		}
		ir := indexRecord(r)
		idx.byID[ir.uid] = ir.keys
		for _, k := range ir.keys {
			idx.byAddr[k] = entry{uid: ir.uid, peer: ir.peer}
		}
	}
	return idx
}

func indexDelta(d *types.Delta) *deltaIndex {
	idx := &deltaIndex{
		added:   make([]indexedRecord, 0, len(d.Added)),
		removed: d.RemovedIDs,
	}
	for _, r := range d.Added {
		if r.Peer == nil {
			continue
		}
		idx.added = append(idx.added, indexRecord(r))
	}
	for _, a := range d.Unresolved {
		if k, err := types.KeyFromAddr(a); err == nil {
			idx.unresolved = append(idx.unresolved, k)
		}
	}
	return idx
}

// clone 为一个分片复制全量索引
func (s *snapshotIndex) clone() (map[types.AddressKey]entry, map[string][]types.AddressKey) {
	return maps.Clone(s.byAddr), maps.Clone(s.byID)
}
