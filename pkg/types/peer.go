package types

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PeerIdentity 对端身份记录
//
// 描述一个连接对端的工作负载属性。构造后只读：
// 所有修改都通过 With* 方法返回新实例，原实例保持不变。
// 由 codec 从三种线上格式之一解码得到，或由发现方法直接构造。
type PeerIdentity struct {
	// InstanceName 实例名（Pod/Job 与 WorkloadName 相同）
	InstanceName string
	// ClusterName 集群名
	ClusterName string
	// NamespaceName 命名空间
	NamespaceName string
	// WorkloadName 工作负载名
	WorkloadName string
	// CanonicalName 规范服务名
	CanonicalName string
	// CanonicalRevision 规范服务版本
	CanonicalRevision string
	// AppName 应用名
	AppName string
	// AppVersion 应用版本
	AppVersion string
	// WorkloadType 工作负载类型，默认 Pod
	WorkloadType WorkloadType
	// Identity 信任身份，例如 spiffe://cluster.local/ns/default/sa/foo
	Identity string
	// Region 区域提示
	Region string
	// Zone 可用区提示
	Zone string

	// 以下字段只存在于二进制记录/结构化文档中，不参与文本编码

	// Owner 拥有者引用，形如 kubernetes://apis/apps/v1/namespaces/<ns>/deployments/<name>
	Owner string
	// PlatformMetadata 平台元数据
	PlatformMetadata map[string]string
	// AppContainers 应用容器名
	AppContainers []string
	// InstanceIPs 实例 IP
	InstanceIPs []string
}

// Clone 返回深拷贝
func (p *PeerIdentity) Clone() *PeerIdentity {
	if p == nil {
		return nil
	}
	c := *p
	c.PlatformMetadata = maps.Clone(p.PlatformMetadata)
	c.AppContainers = slices.Clone(p.AppContainers)
	c.InstanceIPs = slices.Clone(p.InstanceIPs)
	return &c
}

// Hash 实例哈希
//
// 只由 InstanceName 和 NamespaceName 决定，标识的是工作负载实例，
// 与服务名、版本等其余字段无关。
func (p *PeerIdentity) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(p.InstanceName)
	_, _ = d.WriteString("/")
	_, _ = d.WriteString(p.NamespaceName)
	return d.Sum64()
}

// OwningName 返回该工作负载类型下语义上的拥有者名称
func (p *PeerIdentity) OwningName() string {
	if p.WorkloadType.HasInstanceName() && p.InstanceName != "" {
		return p.InstanceName
	}
	return p.WorkloadName
}

// Equal 逐字段比较
//
// nil 与空 map/slice 视为相等。
func (p *PeerIdentity) Equal(o *PeerIdentity) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.InstanceName == o.InstanceName &&
		p.ClusterName == o.ClusterName &&
		p.NamespaceName == o.NamespaceName &&
		p.WorkloadName == o.WorkloadName &&
		p.CanonicalName == o.CanonicalName &&
		p.CanonicalRevision == o.CanonicalRevision &&
		p.AppName == o.AppName &&
		p.AppVersion == o.AppVersion &&
		p.WorkloadType == o.WorkloadType &&
		p.Identity == o.Identity &&
		p.Region == o.Region &&
		p.Zone == o.Zone &&
		p.Owner == o.Owner &&
		maps.Equal(p.PlatformMetadata, o.PlatformMetadata) &&
		slices.Equal(p.AppContainers, o.AppContainers) &&
		slices.Equal(p.InstanceIPs, o.InstanceIPs)
}

// WithIdentity 返回设置了信任身份的新实例
func (p *PeerIdentity) WithIdentity(identity string) *PeerIdentity {
	c := p.Clone()
	c.Identity = identity
	return c
}

// WithCluster 返回设置了集群名的新实例
func (p *PeerIdentity) WithCluster(cluster string) *PeerIdentity {
	c := p.Clone()
	c.ClusterName = cluster
	return c
}

// WithLocality 返回设置了区域/可用区的新实例
func (p *PeerIdentity) WithLocality(region, zone string) *PeerIdentity {
	c := p.Clone()
	c.Region = region
	c.Zone = zone
	return c
}

// String 返回便于日志阅读的简短表示
func (p *PeerIdentity) String() string {
	if p == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s", p.NamespaceName, p.OwningName())
	if p.WorkloadType != WorkloadPod {
		fmt.Fprintf(&b, "(%s)", p.WorkloadType)
	}
	if p.ClusterName != "" {
		fmt.Fprintf(&b, "@%s", p.ClusterName)
	}
	if p.CanonicalName != "" {
		fmt.Fprintf(&b, " svc=%s", p.CanonicalName)
		if p.CanonicalRevision != "" {
			fmt.Fprintf(&b, ":%s", p.CanonicalRevision)
		}
	}
	return b.String()
}
