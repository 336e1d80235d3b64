package codec

import (
	"strings"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// OwnerPrefix 拥有者引用前缀
const OwnerPrefix = "kubernetes://apis/"

type ownerKind struct {
	groupVersion string
	plural       string
}

var ownerKinds = map[types.WorkloadType]ownerKind{
	types.WorkloadPod:        {"v1", "pods"},
	types.WorkloadDeployment: {"apps/v1", "deployments"},
	types.WorkloadJob:        {"batch/v1", "jobs"},
	types.WorkloadCronJob:    {"batch/v1", "cronjobs"},
}

// BuildOwner 构造拥有者引用
//
//	kubernetes://apis/apps/v1/namespaces/default/deployments/foo
func BuildOwner(t types.WorkloadType, namespace, name string) string {
	if namespace == "" || name == "" {
		return ""
	}
	k, ok := ownerKinds[t]
	if !ok {
		k = ownerKinds[types.WorkloadPod]
	}
	return OwnerPrefix + k.groupVersion + "/namespaces/" + namespace + "/" + k.plural + "/" + name
}

// OwnerRef 解析后的拥有者引用
type OwnerRef struct {
	Type      types.WorkloadType
	Namespace string
	Name      string
}

// ParseOwner 解析拥有者引用
//
// 只识别 pods/deployments/jobs/cronjobs 四种复数形式，其余返回 false。
func ParseOwner(owner string) (OwnerRef, bool) {
	rest, ok := strings.CutPrefix(owner, OwnerPrefix)
	if !ok {
		return OwnerRef{}, false
	}
	_, rest, ok = strings.Cut(rest, "/namespaces/")
	if !ok {
		return OwnerRef{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return OwnerRef{}, false
	}
	for t, k := range ownerKinds {
		if k.plural == parts[1] {
			return OwnerRef{Type: t, Namespace: parts[0], Name: parts[2]}, true
		}
	}
	return OwnerRef{}, false
}
