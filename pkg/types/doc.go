// Package types 定义 go-peermeta 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是值类型，用于在 codec、exchange、discovery、peercache 之间传递。
//
// # 文件组织
//
//   - peer.go      - PeerIdentity 对端身份记录
//   - enums.go     - WorkloadType, Direction
//   - address.go   - AddressKey 地址键（定长二进制）
//   - workload.go  - WorkloadRecord, Snapshot, Delta 控制面更新
//   - state.go     - 共享状态键
//   - errors.go    - 公共错误定义
//
// # 不可变性
//
// PeerIdentity 构造后不再修改。需要变更时通过 With* 方法得到新实例，
// 因此可以在连接生命周期内按引用自由共享。
package types
