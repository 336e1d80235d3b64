package codec

import (
	"strings"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// 文本格式词表
const (
	TokenNamespace   = "k8s.namespace.name"
	TokenCluster     = "k8s.cluster.name"
	TokenServiceName = "service.name"
	TokenServiceVer  = "service.version"
	TokenAppName     = "app.name"
	TokenAppVersion  = "app.version"
	TokenPod         = "k8s.pod.name"
	TokenDeployment  = "k8s.deployment.name"
	TokenJob         = "k8s.job.name"
	TokenCronJob     = "k8s.cronjob.name"
)

// workloadToken 返回工作负载类型对应的 token
func workloadToken(t types.WorkloadType) string {
	switch t {
	case types.WorkloadDeployment:
		return TokenDeployment
	case types.WorkloadJob:
		return TokenJob
	case types.WorkloadCronJob:
		return TokenCronJob
	default:
		return TokenPod
	}
}

// Encode 编码为文本格式
//
// 字段顺序固定：集群、命名空间、工作负载、服务名、服务版本、应用名、应用版本。
// 每个 token 都会输出（包括空值），保证输出确定。
func Encode(p *types.PeerIdentity) string {
	if p == nil {
		return ""
	}

	workload := p.WorkloadName
	if p.WorkloadType.HasInstanceName() && p.InstanceName != "" {
		workload = p.InstanceName
	}

	var b strings.Builder
	b.Grow(128)
	writePair(&b, TokenCluster, p.ClusterName)
	writePair(&b, TokenNamespace, p.NamespaceName)
	writePair(&b, workloadToken(p.WorkloadType), workload)
	writePair(&b, TokenServiceName, p.CanonicalName)
	writePair(&b, TokenServiceVer, p.CanonicalRevision)
	writePair(&b, TokenAppName, p.AppName)
	writePair(&b, TokenAppVersion, p.AppVersion)
	return b.String()
}

func writePair(b *strings.Builder, token, value string) {
	if b.Len() > 0 {
		b.WriteByte(',')
	}
	b.WriteString(token)
	b.WriteByte('=')
	b.WriteString(value)
}

// Decode 解析文本格式
//
// 未知 token 忽略；没有 '=' 的片段忽略。出现多个工作负载 token 时以第一个为准。
func Decode(text string) *types.PeerIdentity {
	p := &types.PeerIdentity{}
	workloadSet := false

	for _, part := range strings.Split(text, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case TokenNamespace:
			p.NamespaceName = value
		case TokenCluster:
			p.ClusterName = value
		case TokenServiceName:
			p.CanonicalName = value
		case TokenServiceVer:
			p.CanonicalRevision = value
		case TokenAppName:
			p.AppName = value
		case TokenAppVersion:
			p.AppVersion = value
		case TokenPod, TokenDeployment, TokenJob, TokenCronJob:
			if workloadSet {
				continue
			}
			workloadSet = true
			p.WorkloadType = tokenWorkloadType(key)
			p.WorkloadName = value
			if p.WorkloadType.HasInstanceName() {
				p.InstanceName = value
			}
		}
	}
	return p
}

func tokenWorkloadType(token string) types.WorkloadType {
	switch token {
	case TokenDeployment:
		return types.WorkloadDeployment
	case TokenJob:
		return types.WorkloadJob
	case TokenCronJob:
		return types.WorkloadCronJob
	default:
		return types.WorkloadPod
	}
}
