package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// ============================================================================
//                              解码
// ============================================================================

// TestDecode_DeploymentExample 完整示例解码
func TestDecode_DeploymentExample(t *testing.T) {
	in := "k8s.deployment.name=foo,k8s.cluster.name=my-cluster,k8s.namespace.name=default," +
		"service.name=foo-service,service.version=v1alpha3"

	got := Decode(in)

	want := &types.PeerIdentity{
		WorkloadName:      "foo",
		ClusterName:       "my-cluster",
		NamespaceName:     "default",
		CanonicalName:     "foo-service",
		CanonicalRevision: "v1alpha3",
		WorkloadType:      types.WorkloadDeployment,
	}
	assert.True(t, want.Equal(got), "got %+v", got)
	assert.Empty(t, got.InstanceName)
}

// TestEncode_DeploymentExample 重新编码：固定顺序，空的 app 字段在尾部
func TestEncode_DeploymentExample(t *testing.T) {
	in := "k8s.deployment.name=foo,k8s.cluster.name=my-cluster,k8s.namespace.name=default," +
		"service.name=foo-service,service.version=v1alpha3"

	out := Encode(Decode(in))

	assert.Equal(t,
		"k8s.cluster.name=my-cluster,k8s.namespace.name=default,k8s.deployment.name=foo,"+
			"service.name=foo-service,service.version=v1alpha3,app.name=,app.version=",
		out)

	// 去掉尾部空 app 字段后，token 集合与输入一致
	trimmed := strings.TrimSuffix(out, ",app.name=,app.version=")
	assert.ElementsMatch(t, strings.Split(in, ","), strings.Split(trimmed, ","))
}

// TestDecode_WorkloadTokens 工作负载 token 与类型映射
func TestDecode_WorkloadTokens(t *testing.T) {
	tests := []struct {
		in           string
		wantType     types.WorkloadType
		wantInstance string
		wantWorkload string
	}{
		{"k8s.pod.name=foo", types.WorkloadPod, "foo", "foo"},
		{"k8s.job.name=foo", types.WorkloadJob, "foo", "foo"},
		{"k8s.deployment.name=foo", types.WorkloadDeployment, "", "foo"},
		{"k8s.cronjob.name=foo", types.WorkloadCronJob, "", "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := Decode(tt.in)
			assert.Equal(t, tt.wantType, p.WorkloadType)
			assert.Equal(t, tt.wantInstance, p.InstanceName)
			assert.Equal(t, tt.wantWorkload, p.WorkloadName)
		})
	}
}

// TestDecode_IgnoresUnknownAndMalformed 未知 token 与残缺片段被忽略
func TestDecode_IgnoresUnknownAndMalformed(t *testing.T) {
	p := Decode("foo=bar,k8s.namespace.name=ns, service.name = svc ,garbage,,=x")

	assert.Equal(t, "ns", p.NamespaceName)
	assert.Equal(t, "svc", p.CanonicalName)
	assert.Equal(t, types.WorkloadPod, p.WorkloadType)
	assert.Empty(t, p.WorkloadName)
}

// TestDecode_FirstWorkloadTokenWins 多个工作负载 token 以第一个为准
func TestDecode_FirstWorkloadTokenWins(t *testing.T) {
	p := Decode("k8s.cronjob.name=a,k8s.pod.name=b")
	assert.Equal(t, types.WorkloadCronJob, p.WorkloadType)
	assert.Equal(t, "a", p.WorkloadName)
	assert.Empty(t, p.InstanceName)
}

// TestDecode_Empty 空字符串得到默认记录
func TestDecode_Empty(t *testing.T) {
	assert.True(t, (&types.PeerIdentity{}).Equal(Decode("")))
}

// ============================================================================
//                              编码
// ============================================================================

// TestEncode_DeploymentOmitsPodToken Deployment 不输出 pod token
func TestEncode_DeploymentOmitsPodToken(t *testing.T) {
	out := Encode(&types.PeerIdentity{
		WorkloadName:  "foo",
		InstanceName:  "foo-7d9f-abcde",
		NamespaceName: "default",
		WorkloadType:  types.WorkloadDeployment,
	})
	assert.Contains(t, out, "k8s.deployment.name=foo")
	assert.NotContains(t, out, TokenPod)
	assert.NotContains(t, out, "foo-7d9f-abcde")
}

// TestEncode_PodUsesInstanceName Pod 输出实例名
func TestEncode_PodUsesInstanceName(t *testing.T) {
	out := Encode(&types.PeerIdentity{InstanceName: "foo-0", WorkloadName: "foo"})
	assert.Contains(t, out, "k8s.pod.name=foo-0")
}

// TestEncode_Nil nil 输入
func TestEncode_Nil(t *testing.T) {
	assert.Empty(t, Encode(nil))
}

// TestBaggage_RoundTrip 文本可表达的字段往返不变
func TestBaggage_RoundTrip(t *testing.T) {
	tests := []*types.PeerIdentity{
		{InstanceName: "p", WorkloadName: "p", NamespaceName: "ns", ClusterName: "c",
			CanonicalName: "svc", CanonicalRevision: "v1", AppName: "app", AppVersion: "1.0"},
		{WorkloadName: "d", NamespaceName: "ns", WorkloadType: types.WorkloadDeployment},
		{InstanceName: "j", WorkloadName: "j", WorkloadType: types.WorkloadJob, ClusterName: "c"},
		{WorkloadName: "cj", WorkloadType: types.WorkloadCronJob, AppName: "a"},
		{},
	}
	for _, in := range tests {
		got := Decode(Encode(in))
		assert.True(t, in.Equal(got), "in=%+v got=%+v", in, got)
	}
}

// TestBaggage_RoundTripDropsBinaryOnlyFields region/zone/owner 不要求经过文本往返
func TestBaggage_RoundTripDropsBinaryOnlyFields(t *testing.T) {
	in := &types.PeerIdentity{
		WorkloadName: "d", WorkloadType: types.WorkloadDeployment, NamespaceName: "ns",
		Region: "r", Zone: "z", Owner: "kubernetes://apis/apps/v1/namespaces/ns/deployments/d",
	}
	got := Decode(Encode(in))
	assert.Equal(t, "d", got.WorkloadName)
	assert.Empty(t, got.Region)
	assert.Empty(t, got.Owner)
}
