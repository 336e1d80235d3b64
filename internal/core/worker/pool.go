package worker

import (
	"context"
	"fmt"
)

// Pool 一个控制循环加 N 个 worker 循环
type Pool struct {
	control *Loop
	workers []*Loop
}

// NewPool 创建池
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		control: NewLoop("control", queueSize),
		workers: make([]*Loop, workers),
	}
	for i := range p.workers {
		p.workers[i] = NewLoop(fmt.Sprintf("worker-%d", i), queueSize)
	}
	return p
}

// Start 启动所有循环
func (p *Pool) Start() {
	p.control.Start()
	for _, w := range p.workers {
		w.Start()
	}
	logger.Debug("worker 池已启动", "workers", len(p.workers))
}

// Stop 先停控制循环，再停 worker 循环
func (p *Pool) Stop() {
	p.control.Stop()
	for _, w := range p.workers {
		w.Stop()
	}
}

// Control 控制循环
func (p *Pool) Control() *Loop {
	return p.control
}

// Worker 第 i 个 worker 循环
func (p *Pool) Worker(i int) *Loop {
	return p.workers[i]
}

// Size worker 数量
func (p *Pool) Size() int {
	return len(p.workers)
}

// Barrier 等待此刻之前投递到控制循环与所有 worker 的任务都执行完
//
// 控制循环先排空，控制循环上投递出的 worker 任务也会被等待到。
func (p *Pool) Barrier(ctx context.Context) error {
	if err := p.control.Do(ctx, func() {}); err != nil {
		return err
	}
	for _, w := range p.workers {
		if err := w.Do(ctx, func() {}); err != nil {
			return err
		}
	}
	return nil
}
