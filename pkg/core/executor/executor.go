package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LENAX/depman/pkg/core/action"
)

// ErrActionNotFound 动作未注册
var ErrActionNotFound = errors.New("动作未注册")

// ErrExecutorClosed 执行器已关闭
var ErrExecutorClosed = errors.New("Executor已关闭")

const (
	maxGlobalWorkers = 1000  // 全局最大并发数上限
	defaultQueueSize = 10000 // 默认任务队列大小
)

// Options 执行器选项
type Options struct {
	MaxWorkers    int           // 并发数，<=0 时使用CPU核心数
	ActionTimeout time.Duration // 单个动作超时，0 表示不限制
}

// Executor 执行器核心结构体（对外导出）
// 全局token池限制并发，scheduler协程从队列中取出动作并分配到Worker
type Executor struct {
	mu            sync.RWMutex
	maxWorkers    int                // 全局最大并发数
	workerPool    chan struct{}      // 全局Worker池
	taskQueue     chan *queuedAction // 待调度任务队列
	wg            sync.WaitGroup
	running       bool
	closed        bool
	active        atomic.Int64
	shutdown      chan struct{}
	schedulerDone chan struct{}
	registry      *action.Registry
	actionTimeout time.Duration
}

type queuedAction struct {
	pending *PendingAction
	handle  *Handle
}

// NewExecutor 创建执行器实例（对外导出）
func NewExecutor(registry *action.Registry, opts Options) (*Executor, error) {
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if maxWorkers > maxGlobalWorkers {
		return nil, fmt.Errorf("最大并发数不能超过 %d", maxGlobalWorkers)
	}
	if registry == nil {
		return nil, fmt.Errorf("动作注册中心不能为空")
	}
	if opts.ActionTimeout < 0 {
		return nil, fmt.Errorf("动作超时不能为负数")
	}

	exec := &Executor{
		maxWorkers:    maxWorkers,
		workerPool:    make(chan struct{}, maxWorkers),
		taskQueue:     make(chan *queuedAction, defaultQueueSize),
		shutdown:      make(chan struct{}),
		schedulerDone: make(chan struct{}),
		registry:      registry,
		actionTimeout: opts.ActionTimeout,
	}

	// 启动任务调度器
	go exec.scheduler()

	return exec, nil
}

// Start 启动执行器（对外导出）
func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.closed {
		return
	}
	e.running = true
	log.Printf("✅ 执行器已启动，并发数=%d", e.maxWorkers)
}

// MaxWorkers 返回并发上限
func (e *Executor) MaxWorkers() int {
	return e.maxWorkers
}

// Active 返回正在执行的动作数量
func (e *Executor) Active() int {
	return int(e.active.Load())
}

// Shutdown 关闭执行器（对外导出）
// 正在执行的动作会被等待完成（最多30秒），队列中尚未开始的动作以失败结束
// 未调用 Start 时也会停止调度协程；关闭后不能再次 Start
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.running = false
	close(e.shutdown)
	e.mu.Unlock()

	<-e.schedulerDone
	e.drainQueue()

	// 等待所有任务完成（最多等待30秒）
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Executor: 所有动作已完成")
	case <-ctx.Done():
		log.Println("Executor: 关闭超时，强制终止")
	}

	log.Println("✅ 执行器已关闭")
	return nil
}

// SubmitAction 将待执行动作提交至任务队列（对外导出）
// 如果队列已满，会阻塞等待直到有空间或Executor关闭
func (e *Executor) SubmitAction(pending *PendingAction) (*Handle, error) {
	if pending == nil {
		return nil, fmt.Errorf("动作不能为空")
	}
	if pending.NodeID == "" {
		return nil, fmt.Errorf("节点ID不能为空")
	}

	// 持有读锁直到入队完成，保证Shutdown之后不会再有动作进入队列
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.running {
		return nil, fmt.Errorf("Executor未运行")
	}

	item := &queuedAction{pending: pending, handle: NewHandle(pending.NodeID)}
	select {
	case e.taskQueue <- item:
		return item.handle, nil
	case <-e.shutdown:
		return nil, ErrExecutorClosed
	}
}

// scheduler 任务调度器（内部方法）
func (e *Executor) scheduler() {
	defer close(e.schedulerDone)
	for {
		select {
		case item := <-e.taskQueue:
			e.dispatch(item)
		case <-e.shutdown:
			return
		}
	}
}

// dispatch 分配动作到Worker（内部方法）
func (e *Executor) dispatch(item *queuedAction) {
	select {
	case e.workerPool <- struct{}{}:
		e.active.Add(1)
		e.wg.Add(1)
		go e.execute(item)
	case <-e.shutdown:
		e.finish(item, &ActionResult{
			NodeID:     item.pending.NodeID,
			ActionName: item.pending.ActionName,
			Status:     StatusFailed,
			Error:      ErrExecutorClosed,
		})
	}
}

// drainQueue 关闭后以失败结束队列中剩余的动作
func (e *Executor) drainQueue() {
	for {
		select {
		case item := <-e.taskQueue:
			e.finish(item, &ActionResult{
				NodeID:     item.pending.NodeID,
				ActionName: item.pending.ActionName,
				Status:     StatusFailed,
				Error:      ErrExecutorClosed,
			})
		default:
			return
		}
	}
}

// execute 执行动作（内部方法）
func (e *Executor) execute(item *queuedAction) {
	defer func() {
		e.active.Add(-1)
		<-e.workerPool
		e.wg.Done()
	}()

	pending := item.pending
	startTime := time.Now()
	result := &ActionResult{
		NodeID:     pending.NodeID,
		ActionName: pending.ActionName,
		StartedAt:  startTime,
	}

	fn := e.registry.Get(pending.ActionName)
	if fn == nil {
		log.Printf("❌ [动作执行失败] NodeID=%s, 原因: 动作 %s 未注册", pending.NodeID, pending.ActionName)
		result.Status = StatusFailed
		result.Error = fmt.Errorf("%w: %s", ErrActionNotFound, pending.ActionName)
		e.finish(item, result)
		return
	}

	ctx := action.WithActionName(action.WithRunID(context.Background(), pending.RunID), pending.ActionName)
	if e.actionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.actionTimeout)
		defer cancel()
	}

	log.Printf("🚀 [开始执行动作] NodeID=%s, Action=%s, RunID=%s", pending.NodeID, pending.ActionName, pending.RunID)
	err := runAction(ctx, fn, pending.NodeID)
	result.Duration = time.Since(startTime).Milliseconds()

	switch {
	case err == nil:
		result.Status = StatusSuccess
		log.Printf("✅ [动作执行成功] NodeID=%s, Action=%s, 耗时=%dms", pending.NodeID, pending.ActionName, result.Duration)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = StatusTimeoutFailed
		result.Error = fmt.Errorf("动作执行超时（%v）: %w", e.actionTimeout, err)
		log.Printf("⏱️  [动作执行超时] NodeID=%s, Action=%s, 耗时=%dms", pending.NodeID, pending.ActionName, result.Duration)
	default:
		result.Status = StatusFailed
		result.Error = err
		log.Printf("❌ [动作执行失败] NodeID=%s, Action=%s, 耗时=%dms, 错误=%v", pending.NodeID, pending.ActionName, result.Duration, err)
	}

	e.finish(item, result)
}

// runAction 调用动作函数，panic 视为失败
func runAction(ctx context.Context, fn action.Func, nodeID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("动作panic: %v", r)
		}
	}()
	return fn(ctx, nodeID)
}

// finish 先调用完成回调，再结束Handle
// Handle.IsDone() 为true时回调一定已经返回
func (e *Executor) finish(item *queuedAction, result *ActionResult) {
	if item.pending.OnComplete != nil {
		item.pending.OnComplete(result)
	}
	item.handle.Complete(result)
}
