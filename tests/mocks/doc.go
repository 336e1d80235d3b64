// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockConnection: 模拟 interfaces.Connection，记录注入的出站数据
//   - MockMetadataProvider: 模拟 interfaces.MetadataProvider，基于内存 map
//   - MockControlPlaneSource: 模拟 interfaces.ControlPlaneSource，可手动推送更新
//   - MockRecorder: 模拟 interfaces.MetricsRecorder，按标签计数
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	conn := mocks.NewMockConnection("istio-peer-exchange")
//	ex := factory.New(conn, filterstate.New(), nil)
//	ex.OnInboundBytes(exchange.NewBuffer(nil), false)
//	require.Len(t, conn.Injected, 1)
package mocks
