package controlplane

import (
	"fmt"
	"net/netip"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/codec"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// 消息字段
const (
	fieldNonce          = "nonce"
	fieldSubscribe      = "subscribe"
	fieldFull           = "full"
	fieldAdded          = "added"
	fieldRemovedIDs     = "removed_ids"
	fieldUnresolved     = "unresolved"
	fieldUID            = "uid"
	fieldAddresses      = "addresses"
	fieldPeer           = "peer"
	fieldTrustDomain    = "trust_domain"
	fieldServiceAccount = "service_account"
)

// Request 订阅请求
type Request struct {
	Nonce     string
	Subscribe []netip.Addr
}

// EncodeRequest 编码订阅请求
func EncodeRequest(r Request) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldNonce:     structpb.NewStringValue(r.Nonce),
		fieldSubscribe: addrList(r.Subscribe),
	}}
}

// DecodeRequest 解析订阅请求；无效地址跳过
func DecodeRequest(m *structpb.Struct) (Request, error) {
	r := Request{Nonce: m.GetFields()[fieldNonce].GetStringValue()}
	addrs, err := stringList(m, fieldSubscribe)
	if err != nil {
		return Request{}, err
	}
	for _, s := range addrs {
		a, err := netip.ParseAddr(s)
		if err != nil {
			logger.Debug("忽略无效订阅地址", "addr", s)
			continue
		}
		r.Subscribe = append(r.Subscribe, a)
	}
	return r, nil
}

// EncodeUpdate 编码控制面更新
func EncodeUpdate(u types.Update) (*structpb.Struct, error) {
	m := &structpb.Struct{Fields: make(map[string]*structpb.Value, 3)}
	if u.Full != nil {
		recs, err := recordList(u.Full.Records)
		if err != nil {
			return nil, err
		}
		m.Fields[fieldFull] = recs
		return m, nil
	}
	if u.Delta == nil {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidMessage)
	}
	if len(u.Delta.Added) > 0 {
		recs, err := recordList(u.Delta.Added)
		if err != nil {
			return nil, err
		}
		m.Fields[fieldAdded] = recs
	}
	if len(u.Delta.RemovedIDs) > 0 {
		ids := make([]*structpb.Value, len(u.Delta.RemovedIDs))
		for i, id := range u.Delta.RemovedIDs {
			ids[i] = structpb.NewStringValue(id)
		}
		m.Fields[fieldRemovedIDs] = structpb.NewListValue(&structpb.ListValue{Values: ids})
	}
	if len(u.Delta.Unresolved) > 0 {
		m.Fields[fieldUnresolved] = addrList(u.Delta.Unresolved)
	}
	return m, nil
}

// DecodeUpdate 解析控制面更新
//
// 带 full 字段的是全量更新（可以为空列表），否则是增量。
func DecodeUpdate(m *structpb.Struct) (types.Update, error) {
	if m == nil {
		return types.Update{}, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if _, ok := m.GetFields()[fieldFull]; ok {
		recs, err := decodeRecords(m, fieldFull)
		if err != nil {
			return types.Update{}, err
		}
		return types.Update{Full: &types.Snapshot{Records: recs}}, nil
	}

	d := &types.Delta{}
	var err error
	if d.Added, err = decodeRecords(m, fieldAdded); err != nil {
		return types.Update{}, err
	}
	if d.RemovedIDs, err = stringList(m, fieldRemovedIDs); err != nil {
		return types.Update{}, err
	}
	unresolved, err := stringList(m, fieldUnresolved)
	if err != nil {
		return types.Update{}, err
	}
	for _, s := range unresolved {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return types.Update{}, fmt.Errorf("%w: unresolved address %q", ErrInvalidMessage, s)
		}
		d.Unresolved = append(d.Unresolved, a)
	}
	return types.Update{Delta: d}, nil
}

// EncodeRecord 编码单条记录
func EncodeRecord(r types.WorkloadRecord) (*structpb.Struct, error) {
	if r.UID == "" {
		return nil, fmt.Errorf("%w: record without uid", ErrInvalidMessage)
	}
	m := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldUID:       structpb.NewStringValue(r.UID),
		fieldAddresses: addrList(r.Addresses),
	}}
	if r.Peer != nil {
		m.Fields[fieldPeer] = structpb.NewStructValue(codec.ToDocument(r.Peer))
	}
	return m, nil
}

// DecodeRecord 解析单条记录
//
// 身份文档没有 IDENTITY 但携带 trust_domain 与 service_account 时，
// 按 spiffe://<td>/ns/<ns>/sa/<sa> 合成信任身份。
func DecodeRecord(m *structpb.Struct) (types.WorkloadRecord, error) {
	fields := m.GetFields()
	r := types.WorkloadRecord{UID: fields[fieldUID].GetStringValue()}
	if r.UID == "" {
		return r, fmt.Errorf("%w: record without uid", ErrInvalidMessage)
	}

	addrs, err := stringList(m, fieldAddresses)
	if err != nil {
		return r, err
	}
	for _, s := range addrs {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return r, fmt.Errorf("%w: record %s address %q", ErrInvalidMessage, r.UID, s)
		}
		r.Addresses = append(r.Addresses, a)
	}

	doc := fields[fieldPeer].GetStructValue()
	if doc == nil {
		return r, nil
	}
	peer, err := codec.FromDocument(doc)
	if err != nil {
		return r, fmt.Errorf("record %s: %w", r.UID, err)
	}
	td := fields[fieldTrustDomain].GetStringValue()
	sa := fields[fieldServiceAccount].GetStringValue()
	if peer.Identity == "" && td != "" && sa != "" {
		id, err := config.BuildSPIFFEIdentity(td, peer.NamespaceName, sa)
		if err != nil {
			return r, fmt.Errorf("record %s: %w", r.UID, err)
		}
		peer.Identity = id
	}
	r.Peer = peer
	return r, nil
}

func recordList(recs []types.WorkloadRecord) (*structpb.Value, error) {
	vals := make([]*structpb.Value, 0, len(recs))
	for _, r := range recs {
		m, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		vals = append(vals, structpb.NewStructValue(m))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals}), nil
}

func decodeRecords(m *structpb.Struct, key string) ([]types.WorkloadRecord, error) {
	v, ok := m.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidMessage, key)
	}
	out := make([]types.WorkloadRecord, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: %s item is not a struct", ErrInvalidMessage, key)
		}
		r, err := DecodeRecord(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func addrList(addrs []netip.Addr) *structpb.Value {
	vals := make([]*structpb.Value, len(addrs))
	for i, a := range addrs {
		vals[i] = structpb.NewStringValue(a.String())
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func stringList(m *structpb.Struct, key string) ([]string, error) {
	v, ok := m.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidMessage, key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s item is not a string", ErrInvalidMessage, key)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}
