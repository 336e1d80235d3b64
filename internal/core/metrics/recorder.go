package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

const namespace = "peermeta"

// methodNone 发现链没有命中时的标签值
const methodNone = "none"

// 确保实现了接口
var _ pkgif.MetricsRecorder = (*Recorder)(nil)

// Recorder Prometheus 指标记录器
type Recorder struct {
	registry *prometheus.Registry

	exchange      *prometheus.CounterVec
	discovery     *prometheus.CounterVec
	propagation   *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	updates       *prometheus.CounterVec
	updateRecords *prometheus.CounterVec
	resolves      *prometheus.CounterVec
}

// NewRecorder 创建记录器
//
// reg 为 nil 时新建一个注册表，并附带 Go 运行时与进程指标。
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	r := &Recorder{
		registry: reg,
		exchange: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_total",
			Help:      "Stream exchange outcomes.",
		}, []string{"direction", "outcome"}),
		discovery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_total",
			Help:      "Discovery chain results by matching method.",
		}, []string{"direction", "method"}),
		propagation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_total",
			Help:      "Identity propagations by method.",
		}, []string{"direction", "method"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Distributed cache lookups.",
		}, []string{"result"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_updates_total",
			Help:      "Control plane updates applied to the cache.",
		}, []string{"kind"}),
		updateRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_update_records_total",
			Help:      "Records carried by control plane updates.",
		}, []string{"kind"}),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_requests_total",
			Help:      "On-demand resolve requests to the control plane.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.exchange, r.discovery, r.propagation, r.lookups,
		r.updates, r.updateRecords, r.resolves)
	return r
}

// Registry 返回注册表
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler 返回 Prometheus 文本格式的 HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ExchangeOutcome 实现 MetricsRecorder
func (r *Recorder) ExchangeOutcome(dir types.Direction, outcome string) {
	r.exchange.WithLabelValues(dir.String(), outcome).Inc()
}

// DiscoveryResult 实现 MetricsRecorder
func (r *Recorder) DiscoveryResult(dir types.Direction, method string) {
	if method == "" {
		method = methodNone
	}
	r.discovery.WithLabelValues(dir.String(), method).Inc()
}

// Propagated 实现 MetricsRecorder
func (r *Recorder) Propagated(dir types.Direction, method string) {
	r.propagation.WithLabelValues(dir.String(), method).Inc()
}

// CacheLookup 实现 MetricsRecorder
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(result).Inc()
}

// CacheUpdate 实现 MetricsRecorder
func (r *Recorder) CacheUpdate(kind string, records int) {
	r.updates.WithLabelValues(kind).Inc()
	r.updateRecords.WithLabelValues(kind).Add(float64(records))
}

// ResolveRequest 实现 MetricsRecorder
func (r *Recorder) ResolveRequest(outcome string) {
	r.resolves.WithLabelValues(outcome).Inc()
}
