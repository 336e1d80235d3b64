// Package filterstate 提供 FilterState 的内存实现
//
// 宿主代理接入时通常使用自己的共享状态存储；本实现用于独立运行的 Agent
// 与测试。每个连接/请求一个实例，不做并发保护。
package filterstate

import (
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
	"github.com/dep2p/go-peermeta/pkg/types"
)

var logger = log.Logger("core/filterstate")

// 确保实现了接口
var _ pkgif.FilterState = (*Store)(nil)

// Store 键值存储，键一旦写入不可覆盖
type Store struct {
	values map[string]any
}

// New 创建空存储
func New() *Store {
	return &Store{values: make(map[string]any, 4)}
}

// SetOnce 写入键值，键已存在时为空操作
func (s *Store) SetOnce(key string, value any) bool {
	if _, ok := s.values[key]; ok {
		logger.Debug("状态键已存在，忽略重复写入", "key", key)
		return false
	}
	s.values[key] = value
	return true
}

// Get 读取键值
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has 键是否存在
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Peer 读取指定方向的对端身份
func (s *Store) Peer(dir types.Direction) *types.PeerIdentity {
	return PeerFrom(s, dir)
}

// PeerFrom 从任意 FilterState 读取指定方向的对端身份
func PeerFrom(fs pkgif.FilterState, dir types.Direction) *types.PeerIdentity {
	v, ok := fs.Get(dir.StateKey())
	if !ok {
		return nil
	}
	p, _ := v.(*types.PeerIdentity)
	return p
}

// PeerNotFound 是否记录了未找到对端的标记
func PeerNotFound(fs pkgif.FilterState) bool {
	return fs.Has(types.PeerNotFoundKey)
}
