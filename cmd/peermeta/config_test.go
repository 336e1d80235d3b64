package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-peermeta/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PEERMETA_LOG_LEVEL", "debug")
	t.Setenv("PEERMETA_WORKERS", "4")
	t.Setenv("PEERMETA_CONTROL_PLANE_ADDR", "istiod:15012")
	t.Setenv("PEERMETA_INTROSPECT_ADDR", "0.0.0.0:15020")
	t.Setenv("PEERMETA_ENABLE_METRICS", "off")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Cache.Workers)
	assert.Equal(t, config.ControlPlaneGRPC, cfg.ControlPlane.Mode)
	assert.Equal(t, "istiod:15012", cfg.ControlPlane.Address)
	assert.True(t, cfg.Diagnostics.EnableIntrospect)
	assert.Equal(t, "0.0.0.0:15020", cfg.Diagnostics.IntrospectAddr)
	assert.False(t, cfg.Diagnostics.EnableMetrics)
}

func TestApplyEnvOverrides_BadWorkers(t *testing.T) {
	t.Setenv("PEERMETA_WORKERS", "many")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)
	assert.Equal(t, 0, cfg.Cache.Workers)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", " on "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "0", "", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
}
