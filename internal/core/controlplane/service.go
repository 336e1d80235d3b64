package controlplane

import (
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// gRPC 服务与方法名
const (
	ServiceName  = "peermeta.v1.WorkloadDiscovery"
	StreamMethod = "/" + ServiceName + "/StreamWorkloads"
)

// WorkloadDiscoveryServer 服务端接口
type WorkloadDiscoveryServer interface {
	StreamWorkloads(stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkloadDiscoveryServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamWorkloads",
			Handler:       streamWorkloadsHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "peermeta/v1/workload_discovery.proto",
}

func streamWorkloadsHandler(srv any, stream grpc.ServerStream) error {
	return srv.(WorkloadDiscoveryServer).StreamWorkloads(stream)
}

// RegisterServer 向 gRPC 服务器注册工作负载发现服务
func RegisterServer(s grpc.ServiceRegistrar, srv WorkloadDiscoveryServer) {
	s.RegisterService(&serviceDesc, srv)
}

// 确保实现了接口
var _ WorkloadDiscoveryServer = (*Server)(nil)

// Server 参考服务端
//
// 每个流先收到一次全量，之后收到登记表的增量；
// 客户端的订阅请求以 Added/Unresolved 增量应答。
type Server struct {
	registry *Registry
	streams  atomic.Int64
}

// NewServer 创建服务端
func NewServer(reg *Registry) *Server {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Server{registry: reg}
}

// Registry 后端登记表
func (s *Server) Registry() *Registry {
	return s.registry
}

// Streams 当前活动流数量
func (s *Server) Streams() int {
	return int(s.streams.Load())
}

// StreamWorkloads 处理一个订阅流
func (s *Server) StreamWorkloads(stream grpc.ServerStream) error {
	updates, cancel := s.registry.Watch()
	defer cancel()

	s.streams.Add(1)
	defer s.streams.Add(-1)

	g, ctx := errgroup.WithContext(stream.Context())
	reqs := make(chan Request)

	// 接收循环：客户端关闭发送方向时以 errClientDone 结束整个流
	g.Go(func() error {
		for {
			m := &structpb.Struct{}
			if err := stream.RecvMsg(m); err != nil {
				if errors.Is(err, io.EOF) {
					return errClientDone
				}
				return err
			}
			req, err := DecodeRequest(m)
			if err != nil {
				logger.Debug("忽略无效的订阅请求", "err", err)
				continue
			}
			select {
			case reqs <- req:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// 发送循环：SendMsg 只在这一个 goroutine 上调用
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case u := <-updates:
				if err := sendUpdate(stream, u); err != nil {
					return err
				}
			case req := <-reqs:
				if len(req.Subscribe) == 0 {
					continue
				}
				logger.Debug("应答按需解析", "nonce", req.Nonce, "addrs", len(req.Subscribe))
				if err := sendUpdate(stream, types.Update{Delta: s.registry.Resolve(req.Subscribe...)}); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errClientDone) {
		return err
	}
	return nil
}

// errClientDone 客户端正常关闭
var errClientDone = errors.New("client closed stream")

func sendUpdate(stream grpc.ServerStream, u types.Update) error {
	m, err := EncodeUpdate(u)
	if err != nil {
		logger.Warn("无法编码更新", "err", err)
		return nil
	}
	return stream.SendMsg(m)
}
