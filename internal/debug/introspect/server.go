package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/codec"
	"github.com/dep2p/go-peermeta/internal/core/peercache"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("debug/introspect")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:15020"

// requestTimeout 单次查询分片的超时
const requestTimeout = 5 * time.Second

// ============================================================================
//                              配置
// ============================================================================

// PeerCache 自省需要的缓存能力
type PeerCache interface {
	Shards() int
	Stats() peercache.Stats
	Dump(ctx context.Context, shard int) ([]peercache.Entry, error)
	Lookup(ctx context.Context, shard int, addr netip.Addr) (*types.PeerIdentity, error)
}

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 "127.0.0.1:15020"
	Addr string

	// Self 本端身份
	Self *types.PeerIdentity

	// Cache 可选的分布式缓存
	Cache PeerCache

	// Unified 可选的统一配置，/debug/config 输出它
	Unified *config.Config

	// Metrics 可选的指标 handler
	Metrics http.Handler

	// CustomHandlers 自定义处理器
	CustomHandlers map[string]http.HandlerFunc
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config
	router chi.Router

	// HTTP 服务器
	server   *http.Server
	listener net.Listener

	// 状态
	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	s := &Server{
		config:    cfg,
		startTime: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Route("/debug", func(r chi.Router) {
		r.Get("/introspect", s.handleIntrospect)
		r.Get("/peers", s.handlePeers)
		r.Get("/peers/{addr}", s.handlePeer)
		r.Get("/config", s.handleConfig)
		r.Get("/runtime", s.handleRuntime)

		r.HandleFunc("/pprof/*", pprof.Index)
		r.HandleFunc("/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/pprof/profile", pprof.Profile)
		r.HandleFunc("/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/pprof/trace", pprof.Trace)
	})

	if s.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.config.Metrics)
	}

	for path, handler := range s.config.CustomHandlers {
		r.HandleFunc(path, handler)
	}
	return r
}

// Handler 返回路由，便于嵌入其它服务或测试
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Self      *SelfInfo        `json:"self,omitempty"`
	Cache     *peercache.Stats `json:"cache,omitempty"`
	Runtime   *RuntimeInfo     `json:"runtime,omitempty"`
}

// SelfInfo 本端身份
type SelfInfo struct {
	Peer    *types.PeerIdentity `json:"peer"`
	Baggage string              `json:"baggage"`
	Hash    string              `json:"hash"`
}

// PeersResponse 分片内容
type PeersResponse struct {
	Shard   int               `json:"shard"`
	Shards  int               `json:"shards"`
	Entries []peercache.Entry `json:"entries"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

// handleIntrospect 处理完整诊断请求
func (s *Server) handleIntrospect(w http.ResponseWriter, _ *http.Request) {
	response := IntrospectResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Self:      s.collectSelfInfo(),
		Runtime:   collectRuntimeInfo(),
	}
	if s.config.Cache != nil {
		stats := s.config.Cache.Stats()
		response.Cache = &stats
	}
	s.writeJSON(w, response)
}

// handlePeers 输出一个分片的全部条目
func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	if s.config.Cache == nil {
		http.Error(w, "Peer cache not available", http.StatusServiceUnavailable)
		return
	}
	shard, ok := s.shardParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	entries, err := s.config.Cache.Dump(ctx, shard)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, PeersResponse{Shard: shard, Shards: s.config.Cache.Shards(), Entries: entries})
}

// handlePeer 按地址查询
func (s *Server) handlePeer(w http.ResponseWriter, r *http.Request) {
	if s.config.Cache == nil {
		http.Error(w, "Peer cache not available", http.StatusServiceUnavailable)
		return
	}
	addr, err := netip.ParseAddr(chi.URLParam(r, "addr"))
	if err != nil {
		http.Error(w, "Invalid address", http.StatusBadRequest)
		return
	}
	shard, ok := s.shardParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	peer, err := s.config.Cache.Lookup(ctx, shard, addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if peer == nil {
		http.Error(w, "Peer not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, peer)
}

// handleConfig 输出当前配置
func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	if s.config.Unified == nil {
		http.Error(w, "Config not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.config.Unified)
}

// handleRuntime 处理运行时信息请求
func (s *Server) handleRuntime(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, collectRuntimeInfo())
}

// handleHealth 处理健康检查请求
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}

	// 没有缓存时发现链只能依赖请求头
	if s.config.Cache == nil {
		health.Status = "degraded"
	}

	s.writeJSON(w, health)
}

// ============================================================================
//                              数据收集
// ============================================================================

func (s *Server) collectSelfInfo() *SelfInfo {
	if s.config.Self == nil {
		return nil
	}
	return &SelfInfo{
		Peer:    s.config.Self,
		Baggage: codec.Encode(s.config.Self),
		Hash:    strconv.FormatUint(s.config.Self.Hash(), 16),
	}
}

func collectRuntimeInfo() *RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

// ============================================================================
//                              辅助方法
// ============================================================================

// shardParam 解析 ?shard=N，缺省为 0
func (s *Server) shardParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("shard")
	if v == "" {
		return 0, true
	}
	shard, err := strconv.Atoi(v)
	if err != nil || shard < 0 || shard >= s.config.Cache.Shards() {
		http.Error(w, "Invalid shard", http.StatusBadRequest)
		return 0, false
	}
	return shard, true
}

// writeJSON 写入 JSON 响应
func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
