// Package codec 实现 PeerIdentity 的三种线上格式
//
// # 格式
//
//   - 文本格式（baggage）：逗号分隔的 token=value 对，词表固定
//   - 紧凑二进制记录：protobuf wire 格式的扁平记录，map 按键排序
//   - 结构化文档：google.protobuf.Struct，顶层键为 NAME、NAMESPACE、OWNER 等
//
// 结构化文档在 TCP 交换时再包一层信封（google.protobuf.Any）。
//
// # 确定性
//
// 所有用于跨进程比较或作为缓存键的序列化都按固定字段顺序、排序后的 map 键输出，
// 逻辑相等的输入得到相同字节。
//
// # 兼容格式
//
// FromCompactEndpoint 解析旧版分号分隔的 5 字段字符串：
//
//	workload;namespace;canonical-service;canonical-revision;cluster
package codec
