package controlplane

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/netip"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// 确保实现了接口
var _ pkgif.ControlPlaneSource = (*GRPCSource)(nil)

var errStreamClosed = errors.New("control plane closed the stream")

// GRPCSource 通过 gRPC 双向流订阅控制面
type GRPCSource struct {
	target   string
	initial  time.Duration
	max      time.Duration
	dialOpts []grpc.DialOption

	mu          sync.Mutex
	stream      grpc.ClientStream
	outstanding map[netip.Addr]struct{}

	connected atomic.Bool
}

// NewGRPCSource 创建数据源；opts 附加在默认的非加密传输之后
func NewGRPCSource(cfg config.ControlPlaneConfig, opts ...grpc.DialOption) *GRPCSource {
	return &GRPCSource{
		target:      cfg.Address,
		initial:     cfg.ReconnectInitial.Duration(),
		max:         cfg.ReconnectMax.Duration(),
		dialOpts:    opts,
		outstanding: make(map[netip.Addr]struct{}),
	}
}

// Connected 流是否已收到过消息且仍然存活
func (s *GRPCSource) Connected() bool {
	return s.connected.Load()
}

// Subscribe 建立订阅流并阻塞；断线后指数退避重连，直到 ctx 取消
func (s *GRPCSource) Subscribe(ctx context.Context, handler pkgif.UpdateHandler) error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, s.dialOpts...)
	conn, err := grpc.NewClient(s.target, opts...)
	if err != nil {
		return fmt.Errorf("grpc client: %w", err)
	}
	defer conn.Close()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.MaxInterval = s.max
	b.MaxElapsedTime = 0

	op := func() error {
		err := s.run(ctx, conn, handler, b)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, d time.Duration) {
		logger.Warn("控制面连接断开，准备重连", "target", s.target, "err", err, "retry_in", d)
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

// run 维护一次流的生命周期；收到第一条消息后重置退避
func (s *GRPCSource) run(ctx context.Context, conn *grpc.ClientConn, handler pkgif.UpdateHandler, b backoff.BackOff) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := conn.NewStream(sctx, &serviceDesc.Streams[0], StreamMethod)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	s.mu.Lock()
	s.stream = stream
	if len(s.outstanding) > 0 {
		// 重连前未应答的地址重新请求
		err = s.sendLocked(slices.Collect(maps.Keys(s.outstanding)))
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.stream == stream {
			s.stream = nil
		}
		s.mu.Unlock()
		s.connected.Store(false)
	}()
	if err != nil {
		return err
	}

	for {
		m := &structpb.Struct{}
		if err := stream.RecvMsg(m); err != nil {
			if errors.Is(err, io.EOF) {
				return errStreamClosed
			}
			return err
		}
		if s.connected.CompareAndSwap(false, true) {
			b.Reset()
			logger.Info("控制面已连接", "target", s.target)
		}
		u, err := DecodeUpdate(m)
		if err != nil {
			logger.Warn("忽略无效的控制面消息", "err", err)
			continue
		}
		s.settle(u)
		handler(u)
	}
}

// Resolve 在当前流上发送订阅请求
func (s *GRPCSource) Resolve(ctx context.Context, addr netip.Addr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotConnected
	}
	a := addr.Unmap()
	if err := s.sendLocked([]netip.Addr{a}); err != nil {
		return err
	}
	s.outstanding[a] = struct{}{}
	return nil
}

func (s *GRPCSource) sendLocked(addrs []netip.Addr) error {
	req := Request{Nonce: uuid.NewString(), Subscribe: addrs}
	if err := s.stream.SendMsg(EncodeRequest(req)); err != nil {
		return fmt.Errorf("send request %s: %w", req.Nonce, err)
	}
	logger.Debug("已发送按需解析请求", "nonce", req.Nonce, "addrs", len(addrs))
	return nil
}

// settle 清除已被应答的地址
func (s *GRPCSource) settle(u types.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outstanding) == 0 {
		return
	}
	var recs []types.WorkloadRecord
	if u.Full != nil {
		recs = u.Full.Records
	}
	if u.Delta != nil {
		recs = u.Delta.Added
		for _, a := range u.Delta.Unresolved {
			delete(s.outstanding, a.Unmap())
		}
	}
	for _, r := range recs {
		for _, a := range r.Addresses {
			delete(s.outstanding, a.Unmap())
		}
	}
}

// Outstanding 已发出但尚未应答的地址数
func (s *GRPCSource) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}
