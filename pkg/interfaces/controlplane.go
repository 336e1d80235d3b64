package interfaces

import (
	"context"
	"net/netip"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// UpdateHandler 接收控制面更新
//
// 每次回调携带一个 Snapshot 或一个 Delta。回调在订阅的 goroutine 上串行执行，
// 实现方不应在回调内阻塞。
type UpdateHandler func(update types.Update)

// ControlPlaneSource 控制面订阅
//
// 长连接订阅的具体 RPC 传输由实现决定（内存、gRPC 等）。
type ControlPlaneSource interface {
	// Subscribe 开始订阅并阻塞，直到 ctx 取消或发生不可恢复错误
	Subscribe(ctx context.Context, handler UpdateHandler) error

	// Resolve 请求控制面按需解析一个地址
	//
	// 结果以 Delta 形式通过 UpdateHandler 返回：找到时在 Added 中，
	// 确认不存在时在 Unresolved 中。
	Resolve(ctx context.Context, addr netip.Addr) error
}
