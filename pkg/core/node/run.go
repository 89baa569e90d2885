package node

import (
	"context"
	"sync"
	"sync/atomic"
)

// Run 一次更新运行的共享状态（对外导出）
// 完成回调通过 Wake() 唤醒协调循环，失败后 Halted() 为true，不再提交新动作
type Run struct {
	id       string
	ctx      context.Context
	wake     chan struct{}
	inflight atomic.Int64
	progress atomic.Uint64

	mu         sync.Mutex
	halted     bool
	err        error
	dispatched []string
	upToDate   []string
}

// NewRun 创建运行状态
func NewRun(ctx context.Context, id string) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Run{id: id, ctx: ctx, wake: make(chan struct{}, 1)}
}

// ID 运行ID
func (r *Run) ID() string { return r.id }

// Context 运行上下文
func (r *Run) Context() context.Context { return r.ctx }

// Wake 节点完成时收到信号
func (r *Run) Wake() <-chan struct{} { return r.wake }

// InFlight 已提交但尚未完成的动作数量
func (r *Run) InFlight() int { return int(r.inflight.Load()) }

// Progress 状态变化计数，用于判断一轮是否有进展
func (r *Run) Progress() uint64 { return r.progress.Load() }

// Halt 停止提交新动作，记录第一个错误
func (r *Run) Halt(err error) {
	r.mu.Lock()
	r.halted = true
	if err != nil && r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
	r.notify()
}

// Halted 运行是否已停止（失败或上下文取消）
func (r *Run) Halted() bool {
	if r.ctx.Err() != nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.halted
}

// Err 返回第一个致命错误
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Dispatched 按提交顺序返回已提交动作的节点ID
func (r *Run) Dispatched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dispatched...)
}

// UpToDate 返回分类为 ok 的节点ID
func (r *Run) UpToDate() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.upToDate...)
}

func (r *Run) begin(nodeID string) {
	r.inflight.Add(1)
	r.mu.Lock()
	r.dispatched = append(r.dispatched, nodeID)
	r.mu.Unlock()
	r.progress.Add(1)
}

func (r *Run) end() {
	r.inflight.Add(-1)
	r.progress.Add(1)
	r.notify()
}

func (r *Run) recordUpToDate(nodeID string) {
	r.mu.Lock()
	r.upToDate = append(r.upToDate, nodeID)
	r.mu.Unlock()
	r.progress.Add(1)
}

func (r *Run) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}
