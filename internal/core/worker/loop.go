package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-peermeta/pkg/lib/log"
)

var logger = log.Logger("core/worker")

var (
	// ErrClosed 循环已停止
	ErrClosed = errors.New("worker loop closed")

	// ErrNotStarted 循环尚未启动
	ErrNotStarted = errors.New("worker loop not started")

	// ErrQueueFull 任务队列已满
	ErrQueueFull = errors.New("worker loop queue full")
)

// Loop 单 goroutine 事件循环
type Loop struct {
	name  string
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	started   atomic.Bool
	stopOnce  sync.Once
	processed atomic.Uint64
}

// NewLoop 创建循环，queueSize 为任务队列容量
func NewLoop(name string, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Loop{
		name:  name,
		tasks: make(chan func(), queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Name 循环名称
func (l *Loop) Name() string {
	return l.name
}

// Start 启动循环 goroutine，重复调用无效
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// Stop 停止循环并等待 goroutine 退出
//
// 已入队的任务会在退出前执行完。
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	if l.started.Load() {
		<-l.done
	}
}

// Post 投递任务
//
// 队列满时阻塞，直到有空位或循环停止。同一调用方按顺序投递的任务按同样顺序执行。
// 不能在另一个队列可能反向阻塞等待本循环的循环上调用，这种场景用 TryPost。
func (l *Loop) Post(task func()) error {
	return l.PostContext(context.Background(), task)
}

// PostContext 同 Post，ctx 取消时放弃投递并返回 ctx.Err()
func (l *Loop) PostContext(ctx context.Context, task func()) error {
	select {
	case <-l.quit:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost 非阻塞投递，队列满时返回 ErrQueueFull
func (l *Loop) TryPost(task func()) error {
	select {
	case <-l.quit:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do 投递任务并等待其执行完毕
//
// 排队与等待执行都受 ctx 约束。ctx 取消时已入队的任务仍会执行。
func (l *Loop) Do(ctx context.Context, task func()) error {
	if !l.started.Load() {
		return ErrNotStarted
	}
	done := make(chan struct{})
	if err := l.PostContext(ctx, func() {
		defer close(done)
		task()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.done:
		// 循环退出前会执行完已入队任务
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Processed 已执行的任务数
func (l *Loop) Processed() uint64 {
	return l.processed.Load()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case task := <-l.tasks:
			l.exec(task)
		case <-l.quit:
			for {
				select {
				case task := <-l.tasks:
					l.exec(task)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("任务 panic", "loop", l.name, "panic", fmt.Sprint(r))
		}
	}()
	task()
	l.processed.Add(1)
}
