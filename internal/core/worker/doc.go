// Package worker 提供单 goroutine 事件循环与固定大小的 worker 池
//
// 每个 Loop 由一个 goroutine 按 FIFO 顺序执行投递进来的任务，
// 投递到同一 Loop 的任务永远不会并发或乱序执行。
// 分布式缓存的每个分片绑定一个 worker Loop，控制面更新在控制 Loop 上计算，
// 再以不可变对象的形式投递给各个 worker。
package worker
