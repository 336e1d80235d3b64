package codec

// 二进制记录与结构化文档中使用的知名标签名
const (
	// LabelCanonicalName 规范服务名
	LabelCanonicalName = "service.istio.io/canonical-name"
	// LabelCanonicalRevision 规范服务版本
	LabelCanonicalRevision = "service.istio.io/canonical-revision"
	// LabelApp 应用名
	LabelApp = "app"
	// LabelVersion 应用版本
	LabelVersion = "version"
	// LabelRegion 区域
	LabelRegion = "topology.kubernetes.io/region"
	// LabelZone 可用区
	LabelZone = "topology.kubernetes.io/zone"
)
