package controlplane

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/dep2p/go-peermeta/config"
	pkgif "github.com/dep2p/go-peermeta/pkg/interfaces"
	"github.com/dep2p/go-peermeta/pkg/types"
)

// 确保实现了接口
var _ pkgif.ControlPlaneSource = (*StaticSource)(nil)

// StaticSource 以内存 Registry 为后端的数据源
type StaticSource struct {
	registry *Registry
	resolves chan netip.Addr
}

// NewStaticSource 创建数据源
func NewStaticSource(reg *Registry) *StaticSource {
	if reg == nil {
		reg = NewRegistry()
	}
	return &StaticSource{
		registry: reg,
		resolves: make(chan netip.Addr, watchBuffer),
	}
}

// StaticFromConfig 从配置中的静态记录创建数据源
func StaticFromConfig(records []config.StaticRecord) (*StaticSource, error) {
	recs, err := RecordsFromConfig(records)
	if err != nil {
		return nil, err
	}
	return NewStaticSource(NewRegistry(recs...)), nil
}

// RecordsFromConfig 转换配置中的静态记录
func RecordsFromConfig(records []config.StaticRecord) ([]types.WorkloadRecord, error) {
	out := make([]types.WorkloadRecord, 0, len(records))
	for i, r := range records {
		peer, err := r.Peer.Peer()
		if err != nil {
			return nil, fmt.Errorf("records[%d] %s: %w", i, r.UID, err)
		}
		rec := types.WorkloadRecord{UID: r.UID, Peer: peer}
		for _, s := range r.Addresses {
			a, err := netip.ParseAddr(s)
			if err != nil {
				return nil, fmt.Errorf("records[%d] %s: %w", i, r.UID, err)
			}
			rec.Addresses = append(rec.Addresses, a)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Registry 返回后端登记表，可用来增删记录
func (s *StaticSource) Registry() *Registry {
	return s.registry
}

// Subscribe 先回调一次全量，之后转发登记表变更与按需解析的应答
func (s *StaticSource) Subscribe(ctx context.Context, handler pkgif.UpdateHandler) error {
	updates, cancel := s.registry.Watch()
	defer cancel()
	logger.Info("静态控制面已订阅", "records", s.registry.Len())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-updates:
			handler(u)
		case a := <-s.resolves:
			handler(types.Update{Delta: s.registry.Resolve(a)})
		}
	}
}

// Resolve 把地址排进解析队列，应答由 Subscribe 所在 goroutine 回调
func (s *StaticSource) Resolve(ctx context.Context, addr netip.Addr) error {
	select {
	case s.resolves <- addr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
