package codec

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// 结构化文档顶层键
const (
	KeyName             = "NAME"
	KeyNamespace        = "NAMESPACE"
	KeyOwner            = "OWNER"
	KeyWorkloadName     = "WORKLOAD_NAME"
	KeyClusterID        = "CLUSTER_ID"
	KeyLabels           = "LABELS"
	KeyPlatformMetadata = "PLATFORM_METADATA"
	KeyAppContainers    = "APP_CONTAINERS"
	KeyInstanceIPs      = "INSTANCE_IPS"
	KeyIdentity         = "IDENTITY"
	KeyWorkloadType     = "WORKLOAD_TYPE"
)

// 列表元素中的逗号与百分号转义后再以逗号连接
var (
	listEscaper   = strings.NewReplacer("%", "%25", ",", "%2C")
	listUnescaper = strings.NewReplacer("%2C", ",", "%25", "%")
)

// ToDocument 转换为结构化文档
//
// 空值的顶层键直接省略；WORKLOAD_TYPE 总是输出。OWNER 只携带原始值。
func ToDocument(p *types.PeerIdentity) *structpb.Struct {
	doc := &structpb.Struct{Fields: make(map[string]*structpb.Value, 11)}
	if p == nil {
		return doc
	}
	put := func(k, v string) {
		if v != "" {
			doc.Fields[k] = structpb.NewStringValue(v)
		}
	}
	put(KeyName, p.InstanceName)
	put(KeyNamespace, p.NamespaceName)
	put(KeyOwner, p.Owner)
	put(KeyWorkloadName, p.WorkloadName)
	put(KeyClusterID, p.ClusterName)
	put(KeyAppContainers, joinList(p.AppContainers))
	put(KeyInstanceIPs, joinList(p.InstanceIPs))
	put(KeyIdentity, p.Identity)
	put(KeyWorkloadType, p.WorkloadType.String())

	if labels := labelsOf(p); len(labels) > 0 {
		doc.Fields[KeyLabels] = structpb.NewStructValue(stringStruct(labels))
	}
	if len(p.PlatformMetadata) > 0 {
		doc.Fields[KeyPlatformMetadata] = structpb.NewStructValue(stringStruct(p.PlatformMetadata))
	}
	return doc
}

// FromDocument 从结构化文档还原
//
// 只接受字符串和嵌套结构；其它类型的值返回 ErrInvalidDocument。
// 未知顶层键忽略。没有 WORKLOAD_TYPE 时从 OWNER 推断工作负载类型。
func FromDocument(doc *structpb.Struct) (*types.PeerIdentity, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	p := &types.PeerIdentity{}
	var (
		labels   map[string]string
		wtype    string
		hasWType bool
	)

	for k, v := range doc.GetFields() {
		switch k {
		case KeyLabels, KeyPlatformMetadata:
			m, err := structStrings(k, v)
			if err != nil {
				return nil, err
			}
			if k == KeyLabels {
				labels = m
			} else if len(m) > 0 {
				p.PlatformMetadata = m
			}
			continue
		case KeyName, KeyNamespace, KeyOwner, KeyWorkloadName, KeyClusterID,
			KeyAppContainers, KeyInstanceIPs, KeyIdentity, KeyWorkloadType:
		default:
			continue
		}

		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a string", ErrInvalidDocument, k)
		}
		switch k {
		case KeyName:
			p.InstanceName = s.StringValue
		case KeyNamespace:
			p.NamespaceName = s.StringValue
		case KeyOwner:
			p.Owner = s.StringValue
		case KeyWorkloadName:
			p.WorkloadName = s.StringValue
		case KeyClusterID:
			p.ClusterName = s.StringValue
		case KeyAppContainers:
			p.AppContainers = splitList(s.StringValue)
		case KeyInstanceIPs:
			p.InstanceIPs = splitList(s.StringValue)
		case KeyIdentity:
			p.Identity = s.StringValue
		case KeyWorkloadType:
			wtype, hasWType = s.StringValue, true
		}
	}

	applyLabels(p, labels)
	switch {
	case hasWType:
		t, err := types.ParseWorkloadType(wtype)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		p.WorkloadType = t
	default:
		if ref, ok := ParseOwner(p.Owner); ok {
			p.WorkloadType = ref.Type
		}
	}
	return p, nil
}

// MarshalDocument 确定性序列化结构化文档
func MarshalDocument(doc *structpb.Struct) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(doc)
}

// UnmarshalDocument 反序列化结构化文档
func UnmarshalDocument(data []byte) (*structpb.Struct, error) {
	doc := &structpb.Struct{}
	if err := proto.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

func stringStruct(m map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(m))}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		s.Fields[k] = structpb.NewStringValue(m[k])
	}
	return s
}

func structStrings(key string, v *structpb.Value) (map[string]string, error) {
	sv, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidDocument, key)
	}
	out := make(map[string]string, len(sv.StructValue.GetFields()))
	for k, fv := range sv.StructValue.GetFields() {
		s, ok := fv.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is not a string", ErrInvalidDocument, key, k)
		}
		out[k] = s.StringValue
	}
	return out, nil
}

func joinList(items []string) string {
	escaped := make([]string, len(items))
	for i, it := range items {
		escaped[i] = listEscaper.Replace(it)
	}
	return strings.Join(escaped, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	items := strings.Split(s, ",")
	for i, it := range items {
		items[i] = listUnescaper.Replace(it)
	}
	return items
}
