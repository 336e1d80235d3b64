package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// TestNewConfig 默认配置有效
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultExchangeProtocol, cfg.Exchange.Protocol)
	assert.Equal(t, 500, cfg.Discovery.LocalCacheSize)
	assert.Equal(t, []string{DefaultPassthroughCluster}, cfg.Propagation.SkipClusters)
	assert.Equal(t, ControlPlaneNone, cfg.ControlPlane.Mode)
}

// TestValidateAll_CollectsAllErrors 多个子配置错误一次性返回
func TestValidateAll_CollectsAllErrors(t *testing.T) {
	cfg := NewConfig()
	cfg.Identity.Namespace = "Not_A_Label"
	cfg.Cache.QueueSize = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "identity:")
	assert.Contains(t, errs[1].Error(), "cache:")
	assert.Contains(t, errs[2].Error(), "log:")

	assert.ErrorIs(t, ValidateAll(nil), ErrNilConfig)
	assert.Panics(t, func() { MustValidate(cfg) })
}

// TestIdentityConfig 身份配置
func TestIdentityConfig(t *testing.T) {
	t.Run("PeerFromFields", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.Namespace = "bookinfo"
		cfg.WorkloadName = "ratings-v1"
		cfg.WorkloadType = types.WorkloadDeployment
		cfg.Cluster = "c1"
		cfg.CanonicalName = "ratings"
		cfg.PlatformMetadata = map[string]string{"gcp_project": "p"}

		p, err := cfg.Peer()
		require.NoError(t, err)
		assert.Equal(t, "ratings-v1", p.WorkloadName)
		assert.Empty(t, p.InstanceName)
		assert.Equal(t, types.WorkloadDeployment, p.WorkloadType)

		// 返回值与配置不共享 map
		p.PlatformMetadata["gcp_project"] = "changed"
		assert.Equal(t, "p", cfg.PlatformMetadata["gcp_project"])
	})

	t.Run("PodInstanceDefaultsToWorkload", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.Namespace = "default"
		cfg.WorkloadName = "sleep-abc"

		p, err := cfg.Peer()
		require.NoError(t, err)
		assert.Equal(t, "sleep-abc", p.InstanceName)
	})

	t.Run("SPIFFEFromServiceAccount", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.Namespace = "default"
		cfg.TrustDomain = "cluster.local"
		cfg.ServiceAccount = "sleep"

		p, err := cfg.Peer()
		require.NoError(t, err)
		assert.Equal(t, "spiffe://cluster.local/ns/default/sa/sleep", p.Identity)
	})

	t.Run("InvalidIdentity", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.Identity = "not-a-spiffe-id"
		assert.Error(t, cfg.Validate())
	})

	t.Run("ServiceAccountWithoutTrustDomain", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.ServiceAccount = "sleep"
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownWorkloadType", func(t *testing.T) {
		cfg := DefaultIdentityConfig()
		cfg.WorkloadType = types.WorkloadType(42)
		assert.ErrorIs(t, cfg.Validate(), types.ErrUnknownWorkloadType)
	})
}

// TestDiscoveryConfig_Validate 方法名校验
func TestDiscoveryConfig_Validate(t *testing.T) {
	cfg := DefaultDiscoveryConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Upstream = []string{MethodBaggage, "carrier-pigeon"}
	assert.Error(t, cfg.Validate())

	cfg.Upstream = []string{MethodBaggage, MethodBaggage}
	assert.Error(t, cfg.Validate())

	cfg = DefaultDiscoveryConfig()
	cfg.LocalCacheSize = -1
	assert.Error(t, cfg.Validate())
}

// TestPropagationConfig_Validate 传播不支持按地址查询
func TestPropagationConfig_Validate(t *testing.T) {
	cfg := DefaultPropagationConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Upstream = []string{MethodWorkloadDiscovery}
	assert.Error(t, cfg.Validate())
}

// TestControlPlaneConfig_Validate 控制面模式
func TestControlPlaneConfig_Validate(t *testing.T) {
	cfg := DefaultControlPlaneConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Mode = ControlPlaneGRPC
	assert.Error(t, cfg.Validate())
	cfg.Address = "localhost:15012"
	assert.NoError(t, cfg.Validate())

	cfg = DefaultControlPlaneConfig()
	cfg.Mode = ControlPlaneStatic
	cfg.Records = []StaticRecord{
		{UID: "a", Addresses: []string{"10.0.0.1"}},
		{UID: "a", Addresses: []string{"10.0.0.2"}},
	}
	assert.Error(t, cfg.Validate())

	cfg.Records[1].UID = "b"
	assert.NoError(t, cfg.Validate())

	cfg.Records[1].Addresses = []string{"10.0.0.300"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultControlPlaneConfig()
	cfg.Mode = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

// TestCacheConfig 缓存配置
func TestCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.NoError(t, cfg.Validate())
	assert.Positive(t, cfg.WorkerCount())

	cfg.Workers = 3
	assert.Equal(t, 3, cfg.WorkerCount())

	cfg.ResolveBurst = 0
	assert.Error(t, cfg.Validate())

	cfg.ResolveQPS = 0
	assert.NoError(t, cfg.Validate())
}

// TestFromJSON 从 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"identity": {"namespace": "bookinfo", "workload_name": "ratings-v1", "workload_type": "deployment"},
		"exchange": {"direction": "upstream"},
		"cache": {"resolve_timeout": "250ms"},
		"control_plane": {"mode": "grpc", "address": "istiod:15012"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, types.WorkloadDeployment, cfg.Identity.WorkloadType)
	assert.Equal(t, types.Upstream, cfg.Exchange.Direction)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.ResolveTimeout.Duration())
	assert.Equal(t, "istiod:15012", cfg.ControlPlane.Address)
	// 未出现的字段保留默认值
	assert.Equal(t, DefaultExchangeProtocol, cfg.Exchange.Protocol)
	assert.NoError(t, cfg.Validate())

	_, err = FromJSON([]byte(`{"identity": {"workload_type": "statefulset"}}`))
	assert.Error(t, err)
}

// TestFromYAML 从 YAML 加载
func TestFromYAML(t *testing.T) {
	data := []byte(`
identity:
  namespace: default
  workload_name: sleep
  workload_type: CronJob
control_plane:
  mode: static
  reconnect_max: 1m
  records:
    - uid: w1
      addresses: ["10.0.0.1", "fd00::1"]
      peer:
        namespace: default
        workload_name: productpage
log:
  level: debug
  format: json
`)
	cfg, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, types.WorkloadCronJob, cfg.Identity.WorkloadType)
	assert.Equal(t, time.Minute, cfg.ControlPlane.ReconnectMax.Duration())
	require.Len(t, cfg.ControlPlane.Records, 1)
	assert.Equal(t, []string{"10.0.0.1", "fd00::1"}, cfg.ControlPlane.Records[0].Addresses)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

// TestLoadFile 按扩展名加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "peermeta.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("log:\n  level: warn\n"), 0o600))
	cfg, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	jsonPath := filepath.Join(dir, "peermeta.json")
	out, err := ToJSON(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, out, 0o600))
	again, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"cache": {"queue_size": 0}}`), 0o600))
	_, err = LoadFile(badPath)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestToYAML_RoundTrip YAML 写出后可再次读入
func TestToYAML_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Identity.WorkloadType = types.WorkloadJob
	cfg.Cache.ResolveTimeout = Duration(3 * time.Second)

	out, err := ToYAML(cfg)
	require.NoError(t, err)
	again, err := FromYAML(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

// TestApplyPreset 预设
func TestApplyPreset(t *testing.T) {
	for _, name := range []string{"", "sidecar", "gateway", "minimal"} {
		cfg := NewConfig()
		require.NoError(t, ApplyPreset(cfg, name), name)
		assert.NoError(t, cfg.Validate(), name)
	}

	cfg := NewConfig()
	require.NoError(t, ApplyPreset(cfg, "waypoint"))
	assert.Equal(t, ControlPlaneGRPC, cfg.ControlPlane.Mode)
	assert.Equal(t, []string{MethodWorkloadDiscovery}, cfg.Discovery.Downstream)

	assert.Error(t, ApplyPreset(cfg, "mobile"))
	assert.Error(t, ApplyPreset(nil, "sidecar"))
}

// TestCloneConfig 深拷贝
func TestCloneConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.ControlPlane.Records = []StaticRecord{{UID: "w1", Addresses: []string{"10.0.0.1"}}}

	c := CloneConfig(cfg)
	c.Discovery.Downstream[0] = MethodMXHeaders
	c.ControlPlane.Records[0].Addresses[0] = "10.0.0.2"

	assert.Equal(t, MethodBaggage, cfg.Discovery.Downstream[0])
	assert.Equal(t, "10.0.0.1", cfg.ControlPlane.Records[0].Addresses[0])
	assert.Nil(t, CloneConfig(nil))
}

// TestDuration_JSON 数字与字符串两种形式
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
