package filterstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-peermeta/pkg/types"
)

// TestStore_SetOnce 第二次写入为空操作
func TestStore_SetOnce(t *testing.T) {
	s := New()
	first := &types.PeerIdentity{WorkloadName: "a"}
	second := &types.PeerIdentity{WorkloadName: "b"}

	assert.True(t, s.SetOnce(types.DownstreamPeerKey, first))
	assert.False(t, s.SetOnce(types.DownstreamPeerKey, second))

	assert.Same(t, first, s.Peer(types.Downstream))
	assert.Nil(t, s.Peer(types.Upstream))
}

// TestStore_PeerNotFound 未找到标记
func TestStore_PeerNotFound(t *testing.T) {
	s := New()
	assert.False(t, PeerNotFound(s))
	s.SetOnce(types.PeerNotFoundKey, true)
	assert.True(t, PeerNotFound(s))
	assert.True(t, s.Has(types.PeerNotFoundKey))
}

// TestPeerFrom_WrongType 非身份值返回 nil
func TestPeerFrom_WrongType(t *testing.T) {
	s := New()
	s.SetOnce(types.UpstreamPeerKey, "not a peer")
	assert.Nil(t, PeerFrom(s, types.Upstream))
}
