package codec

import (
	"slices"
	"strings"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// compactEndpointFields 旧版端点字符串的字段数
const compactEndpointFields = 5

// FromCompactEndpoint 解析旧版端点字符串
//
//	workload;namespace;canonical-service;canonical-revision;cluster
//
// 字段数不是 5 或任一字段为空时返回 false。旧版格式不带工作负载类型，
// 按 Pod 处理，实例名与工作负载名相同。
func FromCompactEndpoint(s string) (*types.PeerIdentity, bool) {
	parts := strings.Split(s, ";")
	if len(parts) != compactEndpointFields {
		return nil, false
	}
	if slices.Contains(parts, "") {
		return nil, false
	}
	return &types.PeerIdentity{
		InstanceName:      parts[0],
		WorkloadName:      parts[0],
		WorkloadType:      types.WorkloadPod,
		NamespaceName:     parts[1],
		CanonicalName:     parts[2],
		CanonicalRevision: parts[3],
		ClusterName:       parts[4],
	}, true
}

// ToCompactEndpoint 生成旧版端点字符串
func ToCompactEndpoint(p *types.PeerIdentity) string {
	return strings.Join([]string{
		p.OwningName(),
		p.NamespaceName,
		p.CanonicalName,
		p.CanonicalRevision,
		p.ClusterName,
	}, ";")
}
