package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPeerIdentity_HashIgnoresNonInstanceFields 同实例不同元数据哈希相等
func TestPeerIdentity_HashIgnoresNonInstanceFields(t *testing.T) {
	a := &PeerIdentity{
		InstanceName:      "foo-pod-12345",
		NamespaceName:     "default",
		ClusterName:       "c1",
		CanonicalName:     "foo",
		CanonicalRevision: "v1",
		WorkloadName:      "foo",
		WorkloadType:      WorkloadPod,
	}
	b := &PeerIdentity{
		InstanceName:      "foo-pod-12345",
		NamespaceName:     "default",
		ClusterName:       "c2",
		CanonicalName:     "bar",
		CanonicalRevision: "v2",
		WorkloadName:      "bar",
		AppName:           "x",
		AppVersion:        "y",
		WorkloadType:      WorkloadDeployment,
		Identity:          "spiffe://td/ns/default/sa/bar",
		Region:            "r",
		Zone:              "z",
		Owner:             "kubernetes://apis/apps/v1/namespaces/default/deployments/bar",
	}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(b))
}

// TestPeerIdentity_HashDistinguishesInstance 不同实例或命名空间哈希不同
func TestPeerIdentity_HashDistinguishesInstance(t *testing.T) {
	a := &PeerIdentity{InstanceName: "foo", NamespaceName: "default"}
	b := &PeerIdentity{InstanceName: "foo", NamespaceName: "other"}
	c := &PeerIdentity{InstanceName: "food", NamespaceName: "efault"}

	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

// TestPeerIdentity_CloneIsDeep 拷贝不共享 map/slice
func TestPeerIdentity_CloneIsDeep(t *testing.T) {
	p := &PeerIdentity{
		WorkloadName:     "foo",
		PlatformMetadata: map[string]string{"gcp_project": "p1"},
		AppContainers:    []string{"app"},
		InstanceIPs:      []string{"10.0.0.1"},
	}
	c := p.Clone()
	require.True(t, p.Equal(c))

	c.PlatformMetadata["gcp_project"] = "p2"
	c.AppContainers[0] = "other"
	assert.Equal(t, "p1", p.PlatformMetadata["gcp_project"])
	assert.Equal(t, "app", p.AppContainers[0])
}

// TestPeerIdentity_WithDoesNotMutate With* 返回新实例
func TestPeerIdentity_WithDoesNotMutate(t *testing.T) {
	p := &PeerIdentity{WorkloadName: "foo", ClusterName: "c1"}

	q := p.WithCluster("c2").WithIdentity("spiffe://td/ns/a/sa/b").WithLocality("r1", "z1")

	assert.Equal(t, "c1", p.ClusterName)
	assert.Empty(t, p.Identity)
	assert.Equal(t, "c2", q.ClusterName)
	assert.Equal(t, "spiffe://td/ns/a/sa/b", q.Identity)
	assert.Equal(t, "r1", q.Region)
	assert.Equal(t, "z1", q.Zone)
}

// TestPeerIdentity_OwningName 拥有者名称随工作负载类型变化
func TestPeerIdentity_OwningName(t *testing.T) {
	tests := []struct {
		name string
		peer PeerIdentity
		want string
	}{
		{"pod", PeerIdentity{InstanceName: "p", WorkloadName: "p", WorkloadType: WorkloadPod}, "p"},
		{"job", PeerIdentity{InstanceName: "j", WorkloadName: "j", WorkloadType: WorkloadJob}, "j"},
		{"deployment", PeerIdentity{InstanceName: "d-123", WorkloadName: "d", WorkloadType: WorkloadDeployment}, "d"},
		{"cronjob", PeerIdentity{WorkloadName: "cj", WorkloadType: WorkloadCronJob}, "cj"},
		{"pod without instance", PeerIdentity{WorkloadName: "w"}, "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.peer.OwningName())
		})
	}
}

// TestPeerIdentity_EqualNil nil 比较
func TestPeerIdentity_EqualNil(t *testing.T) {
	var a, b *PeerIdentity
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(&PeerIdentity{}))
	assert.True(t, (&PeerIdentity{}).Equal(&PeerIdentity{PlatformMetadata: map[string]string{}}))
}

// TestPeerIdentity_String 日志表示
func TestPeerIdentity_String(t *testing.T) {
	p := &PeerIdentity{
		WorkloadName:      "foo",
		NamespaceName:     "default",
		WorkloadType:      WorkloadDeployment,
		ClusterName:       "c1",
		CanonicalName:     "foo-svc",
		CanonicalRevision: "v1",
	}
	assert.Equal(t, "default/foo(Deployment)@c1 svc=foo-svc:v1", p.String())

	var nilPeer *PeerIdentity
	assert.Equal(t, "<nil>", nilPeer.String())
}
