// Package introspect 提供本地自省 HTTP 服务
//
// 该服务运行在本地端口，提供 JSON 格式的诊断信息，用于调试和监控。
// 默认绑定到 127.0.0.1，不暴露到网络。
//
// # 端点
//
//	GET /health                - 健康检查
//	GET /debug/introspect      - 完整诊断报告 (JSON)
//	GET /debug/peers           - 分布式缓存分片内容，?shard=N 选择分片
//	GET /debug/peers/{addr}    - 按地址查询对端身份
//	GET /debug/config          - 当前生效的配置
//	GET /debug/runtime         - Go 运行时信息
//	GET /metrics               - Prometheus 指标
//	GET /debug/pprof/*         - Go pprof 端点
//
// # 使用示例
//
//	server := introspect.New(introspect.Config{
//	    Addr:  "127.0.0.1:15020",
//	    Cache: cache,
//	})
//	server.Start(ctx)
//	defer server.Stop()
//
// # 安全
//
// 默认只监听本地地址，不暴露到网络。
// 通过 config.Diagnostics.EnableIntrospect 配置启用。
package introspect
