// Package controlplane 控制面数据源
//
// 为分布式缓存提供工作负载记录：
//
//   - StaticSource：由配置中的静态记录构成的内存数据源
//   - GRPCSource：通过 gRPC 双向流订阅远端控制面，断线后指数退避重连
//   - Server：参考服务端，以内存 Registry 为后端，供测试与 cmd/peermeta 使用
//
// 线上消息全部是 google.protobuf.Struct：
//
//	请求   {nonce: "...", subscribe: ["10.0.0.1", ...]}
//	全量   {full: [record...]}
//	增量   {added: [record...], removed_ids: ["uid"...], unresolved: ["10.0.0.9"...]}
//	记录   {uid, addresses: [...], peer: <身份文档>, trust_domain, service_account}
package controlplane
