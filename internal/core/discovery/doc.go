// Package discovery 实现按方向的对端身份发现链与本端身份传播链
//
// # 发现链
//
// 每个方向（下游/上游）配置一个有序的方法列表，依次尝试，
// 第一个返回身份的方法胜出。无论谁胜出，之后所有方法都会执行一次 Remove，
// 清除自己在请求上留下的传输痕迹（例如剥离请求头）。
//
// 支持的方法：
//   - baggage: 从 baggage 请求头解码文本格式
//   - workload_discovery: 按对端地址查询分布式缓存分片
//   - mx_headers: 旧版 id + base64 文档请求头对，带有界本地缓存
//
// 结果写入共享状态中该方向的槽位，同一槽位只写一次；
// 所有方法都未命中时写入 peer_not_found 标记。
//
// # 传播链
//
// 把本端身份注入到请求/响应头中，支持 baggage 与 mx_headers 两种方法。
// 可按集群跳过：外部集群与透传集群不传播。
//
// 本包的所有类型都不做并发保护，每个 worker 持有自己的 Chain 与 LocalCache。
package discovery
