package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ExchangeOutcome(types.Downstream, "found")
	r.ExchangeOutcome(types.Downstream, "found")
	r.DiscoveryResult(types.Upstream, "")
	r.DiscoveryResult(types.Upstream, "baggage")
	r.Propagated(types.Upstream, "mx_headers")
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheUpdate("full", 3)
	r.CacheUpdate("full", 2)
	r.ResolveRequest("throttled")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.exchange.WithLabelValues("downstream", "found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.discovery.WithLabelValues("upstream", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.discovery.WithLabelValues("upstream", "baggage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.propagation.WithLabelValues("upstream", "mx_headers")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.updates.WithLabelValues("full")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.updateRecords.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolves.WithLabelValues("throttled")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(nil)
	r.CacheLookup(true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `peermeta_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestModule_Provides(t *testing.T) {
	var rec pkgif.MetricsRecorder
	app := fxtest.New(t,
		Module,
		fx.Populate(&rec),
	)
	defer app.RequireStart().RequireStop()

	assert.IsType(t, &Recorder{}, rec)
}

func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Diagnostics.EnableMetrics = false

	var rec pkgif.MetricsRecorder
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&rec),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, pkgif.NopRecorder{}, rec)
}
