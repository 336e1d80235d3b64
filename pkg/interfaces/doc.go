// Package interfaces 定义 go-peermeta 的公共接口
//
// 接口按调用方向分为两类：
//
// # 宿主代理提供
//
// 由嵌入本库的代理实现，供交换状态机与发现链读取：
//   - connection.go     - Connection 连接视图、UpstreamHost、UpstreamCluster
//   - filterstate.go    - FilterState 请求/连接级共享状态
//
// # 本库提供
//
// 由内部组件实现，可在测试中替换：
//   - metadata.go       - MetadataProvider 地址 -> 身份查询（缓存分片）
//   - controlplane.go   - ControlPlaneSource 控制面订阅
//   - metrics.go        - MetricsRecorder 指标记录
//
// # 线程模型
//
// MetadataProvider 与 FilterState 都按 worker 使用，不要求并发安全；
// ControlPlaneSource 与 MetricsRecorder 可被多个 goroutine 同时调用。
package interfaces
