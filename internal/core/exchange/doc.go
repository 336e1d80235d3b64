// Package exchange 实现字节流身份交换
//
// 在原始 TCP 字节流前面插入一帧本端身份，并从对端字节流的开头读出对端身份。
// 交换只在带外协商（ALPN 等价物）确认双方都支持时进行。
//
// # 帧格式
//
//	+----------------+----------------+-----------------------+
//	| magic (u32 BE) | length (u32 BE)| payload (length 字节) |
//	+----------------+----------------+-----------------------+
//
// payload 是 google.protobuf.Any 信封，内含确定性序列化的 google.protobuf.Struct 身份文档。
//
// # 状态机
//
//	ProtocolUnconfirmed -> WriteMetadata -> ReadingHeader <-> NeedMoreHeaderBytes
//	    -> ReadingPayload <-> NeedMorePayloadBytes -> Done
//
// 任意位置都可能进入 Invalid：协议不匹配、魔数错误、负载过大、解码失败、
// 等待数据时对端半关闭。Invalid 与 Done 之后所有字节原样通过。
//
// 状态机不阻塞：数据不足时返回 StatusStop，调用方在更多数据到达后再次调用，
// 未消费的字节留在调用方的 Buffer 中。
//
// # 单向隧道帧
//
// TunnelWriter / TunnelReader 用于 CONNECT 隧道：只有一个方向写一帧，
// 魔数不同，长度 0 表示"没有身份"，是合法结果。
package exchange
