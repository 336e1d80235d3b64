package types

import "net/netip"

// WorkloadRecord 控制面下发的工作负载记录
//
// UID 是控制面给出的记录标识，删除时只携带 UID，
// 因此缓存需要维护 UID -> 地址 的反向索引。
type WorkloadRecord struct {
	// UID 记录标识
	UID string
	// Addresses 该工作负载的网络地址
	Addresses []netip.Addr
	// Peer 身份信息
	Peer *PeerIdentity
}

// Snapshot 全量更新：当前完整的记录集合
type Snapshot struct {
	Records []WorkloadRecord
}

// Delta 增量更新
type Delta struct {
	// Added 新增或替换的记录
	Added []WorkloadRecord
	// RemovedIDs 被删除的记录 UID
	RemovedIDs []string
	// Unresolved 按需查询后控制面确认不存在的地址
	Unresolved []netip.Addr
}

// Empty 是否为空增量
func (d *Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.RemovedIDs) == 0 && len(d.Unresolved) == 0
}

// Update 控制面更新，Snapshot 与 Delta 二选一
type Update struct {
	Full  *Snapshot
	Delta *Delta
}
