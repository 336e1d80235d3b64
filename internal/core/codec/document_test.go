package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// TestDocument_RoundTrip 文档往返
func TestDocument_RoundTrip(t *testing.T) {
	in := fullPeer()

	got, err := FromDocument(ToDocument(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(got), "in=%+v got=%+v", in, got)
}

// TestDocument_OwnerFallback 没有 WORKLOAD_TYPE 的文档从 OWNER 推断类型
func TestDocument_OwnerFallback(t *testing.T) {
	doc, err := structpb.NewStruct(map[string]any{
		"WORKLOAD_NAME": "nightly",
		"NAMESPACE":     "batch",
		"OWNER":         "kubernetes://apis/batch/v1/namespaces/batch/cronjobs/nightly",
	})
	require.NoError(t, err)

	got, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, types.WorkloadCronJob, got.WorkloadType)
	assert.Equal(t, "nightly", got.WorkloadName)
}

// TestDocument_ExplicitWorkloadType 类型不依赖 OWNER 与命名空间
func TestDocument_ExplicitWorkloadType(t *testing.T) {
	in := &types.PeerIdentity{WorkloadName: "web", WorkloadType: types.WorkloadDeployment}

	doc := ToDocument(in)
	assert.Equal(t, "Deployment", doc.GetFields()[KeyWorkloadType].GetStringValue())
	assert.NotContains(t, doc.GetFields(), KeyOwner)

	got, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, types.WorkloadDeployment, got.WorkloadType)
	assert.Empty(t, got.Owner)
	assert.True(t, in.Equal(got), "in=%+v got=%+v", in, got)

	// 显式类型优先于 OWNER
	pod := &types.PeerIdentity{
		InstanceName:  "p",
		NamespaceName: "ns",
		Owner:         "kubernetes://apis/apps/v1/namespaces/ns/deployments/d",
	}
	got, err = FromDocument(ToDocument(pod))
	require.NoError(t, err)
	assert.Equal(t, types.WorkloadPod, got.WorkloadType)
	assert.True(t, pod.Equal(got))

	bad, err := structpb.NewStruct(map[string]any{"WORKLOAD_TYPE": "ReplicaSet"})
	require.NoError(t, err)
	_, err = FromDocument(bad)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

// TestDocument_NoSynthesizedOwner 输入没有 OWNER 时输出也没有
func TestDocument_NoSynthesizedOwner(t *testing.T) {
	in := &types.PeerIdentity{InstanceName: "p", NamespaceName: "ns"}

	got, err := FromDocument(ToDocument(in))
	require.NoError(t, err)
	assert.Empty(t, got.Owner)
	assert.True(t, in.Equal(got))
}

// TestDocument_ListsWithCommas 列表元素可以包含逗号与百分号
func TestDocument_ListsWithCommas(t *testing.T) {
	in := &types.PeerIdentity{
		InstanceName:  "p",
		AppContainers: []string{"a,b", "c", "100%", "x%2Cy"},
		InstanceIPs:   []string{"10.0.0.1", "fd00::1"},
	}

	got, err := FromDocument(ToDocument(in))
	require.NoError(t, err)
	assert.Equal(t, in.AppContainers, got.AppContainers)
	assert.Equal(t, in.InstanceIPs, got.InstanceIPs)
	assert.Equal(t, "10.0.0.1,fd00::1", ToDocument(in).GetFields()[KeyInstanceIPs].GetStringValue())
}

// TestDocument_OmitsEmpty 空值的顶层键省略
func TestDocument_OmitsEmpty(t *testing.T) {
	doc := ToDocument(&types.PeerIdentity{WorkloadName: "w"})

	assert.Contains(t, doc.GetFields(), KeyWorkloadName)
	for _, k := range []string{KeyName, KeyNamespace, KeyOwner, KeyClusterID, KeyLabels, KeyPlatformMetadata, KeyIdentity} {
		assert.NotContains(t, doc.GetFields(), k)
	}
}

// TestDocument_RejectsWrongTypes 非字符串/结构的值
func TestDocument_RejectsWrongTypes(t *testing.T) {
	doc, err := structpb.NewStruct(map[string]any{"NAME": 12.0})
	require.NoError(t, err)
	_, err = FromDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	doc, err = structpb.NewStruct(map[string]any{"LABELS": "not-a-struct"})
	require.NoError(t, err)
	_, err = FromDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = FromDocument(nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

// TestDocument_IgnoresUnknownKeys 未知顶层键忽略
func TestDocument_IgnoresUnknownKeys(t *testing.T) {
	doc, err := structpb.NewStruct(map[string]any{
		"NAME":      "p",
		"MESH_ID":   "mesh1",
		"ISTIO_VER": 1.0,
	})
	require.NoError(t, err)

	got, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "p", got.InstanceName)
}

// TestMarshalDocument_Deterministic 确定性序列化
func TestMarshalDocument_Deterministic(t *testing.T) {
	first, err := MarshalDocument(ToDocument(fullPeer()))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		b, err := MarshalDocument(ToDocument(fullPeer()))
		require.NoError(t, err)
		assert.Equal(t, first, b)
	}

	doc, err := UnmarshalDocument(first)
	require.NoError(t, err)
	got, err := FromDocument(doc)
	require.NoError(t, err)
	assert.True(t, fullPeer().Equal(got))

	_, err = UnmarshalDocument([]byte{0xff})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
