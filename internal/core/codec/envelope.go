package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-peermeta/pkg/types"
)

var deterministic = proto.MarshalOptions{Deterministic: true}

// WrapEnvelope 把身份编码为结构化文档并包进信封，输出确定性字节
func WrapEnvelope(p *types.PeerIdentity) ([]byte, error) {
	env := &anypb.Any{}
	if err := anypb.MarshalFrom(env, ToDocument(p), deterministic); err != nil {
		return nil, fmt.Errorf("marshal peer document: %w", err)
	}
	b, err := deterministic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

// UnwrapEnvelope 解开信封并还原身份
func UnwrapEnvelope(data []byte) (*types.PeerIdentity, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	env := &anypb.Any{}
	if err := proto.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc := &structpb.Struct{}
	if !env.MessageIs(doc) {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedEnvelope, env.GetTypeUrl())
	}
	if err := env.UnmarshalTo(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromDocument(doc)
}
