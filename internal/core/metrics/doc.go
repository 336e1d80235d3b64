// Package metrics 基于 Prometheus 的指标记录
//
// Recorder 实现 interfaces.MetricsRecorder，所有计数器注册在自己的
// prometheus.Registry 上，由 introspect 的 /metrics 暴露。
//
//	rec := metrics.NewRecorder(nil)
//	rec.ExchangeOutcome(types.Downstream, "found")
//	http.Handle("/metrics", rec.Handler())
//
// 指标一览（命名空间 peermeta）：
//
//	peermeta_exchange_total{direction,outcome}
//	peermeta_discovery_total{direction,method}
//	peermeta_propagation_total{direction,method}
//	peermeta_cache_lookups_total{result}
//	peermeta_cache_updates_total{kind}
//	peermeta_cache_update_records_total{kind}
//	peermeta_resolve_requests_total{outcome}
package metrics
