// Package peercache 实现控制面驱动的分布式 地址 -> 身份 缓存
//
// # 分片
//
// 每个 worker 持有一个独立的 Shard，包含：
//   - byAddr: 地址键 -> 条目（身份，或"控制面确认不存在"）
//   - byID:   记录 UID -> 地址键列表，删除记录时据此删除地址
//   - pending: 地址键 -> 等待中的回调（按入队顺序）
//
// Shard 只在所属 worker 的循环上访问，不加锁。
//
// # 更新
//
// 控制面更新（全量 Snapshot 或增量 Delta）在控制循环上预处理一次，
// 得到不可变的索引对象，再投递给每个分片；分片在自己的循环上应用。
// 同一分片按投递顺序应用更新，不同分片之间没有顺序保证。
//
// 全量更新一次性替换分片的两个 map；增量更新先处理删除，再合并新增。
//
// # 按需解析
//
// Fetch 未命中时回调入队；同一地址只在没有进行中的请求时才向控制循环
// 非阻塞地投递一次解析请求，队列满时丢弃，下一次未命中重试。
// 控制循环保证同一地址同时最多一个未完成的解析请求，
// 解析请求经过令牌桶限速，再交给 resolver 循环调用控制面。
// 控制面的应答以 Delta 形式返回，分片应用后按入队顺序触发该地址的全部回调。
//
// worker 循环从不阻塞等待其它循环。
package peercache
