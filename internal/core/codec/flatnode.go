package codec

import (
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// 二进制记录字段号
const (
	fieldName             protowire.Number = 1
	fieldNamespace        protowire.Number = 2
	fieldOwner            protowire.Number = 3
	fieldWorkloadName     protowire.Number = 4
	fieldClusterID        protowire.Number = 5
	fieldLabels           protowire.Number = 6
	fieldPlatformMetadata protowire.Number = 7
	fieldAppContainers    protowire.Number = 8
	fieldInstanceIPs      protowire.Number = 9
	fieldIdentity         protowire.Number = 10
	fieldWorkloadType     protowire.Number = 11
)

// map 条目字段号
const (
	entryKey   protowire.Number = 1
	entryValue protowire.Number = 2
)

// ToBinary 编码为紧凑二进制记录
//
// 空字符串字段省略；map 按键排序输出；重复字段保持原顺序。
func ToBinary(p *types.PeerIdentity) []byte {
	if p == nil {
		return nil
	}
	b := make([]byte, 0, 256)
	b = appendString(b, fieldName, p.InstanceName)
	b = appendString(b, fieldNamespace, p.NamespaceName)
	b = appendString(b, fieldOwner, p.Owner)
	b = appendString(b, fieldWorkloadName, p.WorkloadName)
	b = appendString(b, fieldClusterID, p.ClusterName)
	b = appendMap(b, fieldLabels, labelsOf(p))
	b = appendMap(b, fieldPlatformMetadata, p.PlatformMetadata)
	for _, c := range p.AppContainers {
		b = protowire.AppendTag(b, fieldAppContainers, protowire.BytesType)
		b = protowire.AppendString(b, c)
	}
	for _, ip := range p.InstanceIPs {
		b = protowire.AppendTag(b, fieldInstanceIPs, protowire.BytesType)
		b = protowire.AppendString(b, ip)
	}
	b = appendString(b, fieldIdentity, p.Identity)
	if p.WorkloadType != types.WorkloadPod {
		b = protowire.AppendTag(b, fieldWorkloadType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.WorkloadType))
	}
	return b
}

// FromBinary 解析紧凑二进制记录
//
// 未知字段跳过；标签中未知的键忽略。空输入得到全默认值的记录。
func FromBinary(data []byte) (*types.PeerIdentity, error) {
	p := &types.PeerIdentity{}
	var labels map[string]string

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBinary, protowire.ParseError(n))
		}
		data = data[n:]

		if typ == protowire.BytesType && num >= fieldName && num <= fieldIdentity {
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedBinary, num, protowire.ParseError(m))
			}
			data = data[m:]
			if err := setBytesField(p, num, v, &labels); err != nil {
				return nil, err
			}
			continue
		}
		if typ == protowire.VarintType && num == fieldWorkloadType {
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: workload type: %v", ErrMalformedBinary, protowire.ParseError(m))
			}
			data = data[m:]
			wt := types.WorkloadType(v)
			if !wt.Valid() {
				return nil, fmt.Errorf("%w: workload type %d", ErrMalformedBinary, v)
			}
			p.WorkloadType = wt
			continue
		}

		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedBinary, num, protowire.ParseError(m))
		}
		data = data[m:]
	}

	applyLabels(p, labels)
	return p, nil
}

func setBytesField(p *types.PeerIdentity, num protowire.Number, v []byte, labels *map[string]string) error {
	switch num {
	case fieldName:
		p.InstanceName = string(v)
	case fieldNamespace:
		p.NamespaceName = string(v)
	case fieldOwner:
		p.Owner = string(v)
	case fieldWorkloadName:
		p.WorkloadName = string(v)
	case fieldClusterID:
		p.ClusterName = string(v)
	case fieldIdentity:
		p.Identity = string(v)
	case fieldAppContainers:
		p.AppContainers = append(p.AppContainers, string(v))
	case fieldInstanceIPs:
		p.InstanceIPs = append(p.InstanceIPs, string(v))
	case fieldLabels, fieldPlatformMetadata:
		k, val, err := consumeEntry(v)
		if err != nil {
			return err
		}
		if num == fieldLabels {
			if *labels == nil {
				*labels = make(map[string]string)
			}
			(*labels)[k] = val
		} else {
			if p.PlatformMetadata == nil {
				p.PlatformMetadata = make(map[string]string)
			}
			p.PlatformMetadata[k] = val
		}
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMap(b []byte, num protowire.Number, m map[string]string) []byte {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		var entry []byte
		entry = protowire.AppendTag(entry, entryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, entryValue, protowire.BytesType)
		entry = protowire.AppendString(entry, m[k])

		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func consumeEntry(b []byte) (key, value string, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", fmt.Errorf("%w: map entry: %v", ErrMalformedBinary, protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.BytesType && (num == entryKey || num == entryValue) {
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return "", "", fmt.Errorf("%w: map entry: %v", ErrMalformedBinary, protowire.ParseError(m))
			}
			b = b[m:]
			if num == entryKey {
				key = v
			} else {
				value = v
			}
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return "", "", fmt.Errorf("%w: map entry: %v", ErrMalformedBinary, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return key, value, nil
}

// labelsOf 把规范服务名等字段折叠进标签
func labelsOf(p *types.PeerIdentity) map[string]string {
	labels := make(map[string]string, 6)
	set := func(k, v string) {
		if v != "" {
			labels[k] = v
		}
	}
	set(LabelCanonicalName, p.CanonicalName)
	set(LabelCanonicalRevision, p.CanonicalRevision)
	set(LabelApp, p.AppName)
	set(LabelVersion, p.AppVersion)
	set(LabelRegion, p.Region)
	set(LabelZone, p.Zone)
	return labels
}

func applyLabels(p *types.PeerIdentity, labels map[string]string) {
	p.CanonicalName = labels[LabelCanonicalName]
	p.CanonicalRevision = labels[LabelCanonicalRevision]
	p.AppName = labels[LabelApp]
	p.AppVersion = labels[LabelVersion]
	p.Region = labels[LabelRegion]
	p.Zone = labels[LabelZone]
}
