// Package peermeta 服务网格边车的对端身份元数据交换
//
// Agent 把以下组件装配在一起：
//
//   - exchange：非 HTTP 连接上的字节流身份交换（含 HBONE 隧道变体）
//   - discovery：HTTP 请求上的发现链与传播链
//   - peercache：按 worker 分片、由控制面驱动的地址到身份缓存
//   - controlplane：静态或 gRPC 控制面数据源
//   - metrics / introspect：Prometheus 指标与本地诊断服务
//
// # 快速开始
//
//	agent, err := peermeta.New(
//	    peermeta.WithConfigFile("/etc/peermeta/config.yaml"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := agent.Start(ctx); err != nil {
//	    return err
//	}
//	defer agent.Stop(context.Background())
//
//	// 在 worker 0 上处理一个 HTTP 请求
//	chain := agent.NewDiscoveryChain(types.Downstream, 0)
//	agent.Cache().Post(0, func(*peercache.Shard) {
//	    chain.Discover(req)
//	})
//
// 分片与绑定分片的发现链、交换状态机只能在对应 worker 的循环上使用。
package peermeta
