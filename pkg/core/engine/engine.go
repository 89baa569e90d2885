// Package engine 驱动依赖图的增量更新
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/depman/pkg/core/dag"
	"github.com/LENAX/depman/pkg/core/events"
	"github.com/LENAX/depman/pkg/core/node"
)

// DefaultPollInterval 两轮之间等待的上限
const DefaultPollInterval = time.Second

// 运行结果状态
const (
	RunStatusFinished = "finished"
	RunStatusFailed   = "failed"
)

// Options 引擎选项
type Options struct {
	PollInterval time.Duration // <=0 时使用 DefaultPollInterval
}

// Engine 更新协调器（对外导出）
// 同一个 Engine 同一时刻只运行一次 Update
type Engine struct {
	graph        *node.Graph
	pollInterval time.Duration
	runMu        sync.Mutex

	mu      sync.RWMutex
	lastRun *RunResult
	rt      *resources
}

// RunResult 一次更新运行的结果（对外导出）
type RunResult struct {
	RunID      string                `json:"run_id"`
	Targets    []string              `json:"targets"`
	Status     string                `json:"status"`
	Error      string                `json:"error,omitempty"`
	FailedNode string                `json:"failed_node,omitempty"`
	Dispatched []string              `json:"dispatched"`
	UpToDate   []string              `json:"up_to_date"`
	States     map[string]node.State `json:"states"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Duration   int64                 `json:"duration_ms"`
}

// NewEngine 创建引擎（对外导出）
func NewEngine(graph *node.Graph, opts Options) (*Engine, error) {
	if graph == nil {
		return nil, fmt.Errorf("图不能为空")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Engine{graph: graph, pollInterval: poll}, nil
}

// Graph 返回引擎驱动的图
func (e *Engine) Graph() *node.Graph {
	return e.graph
}

// LastRun 返回最近一次运行结果，没有时为nil
func (e *Engine) LastRun() *RunResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRun
}

// Resolve 把节点ID解析为节点；ids 为空时返回图中所有节点
func (e *Engine) Resolve(ids ...string) ([]*node.Node, error) {
	if len(ids) == 0 {
		return e.graph.Nodes(), nil
	}
	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := e.graph.Node(id)
		if !ok {
			return nil, fmt.Errorf("节点 %s 不存在", id)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// UpdateIDs 按节点ID更新
func (e *Engine) UpdateIDs(ctx context.Context, ids ...string) (*RunResult, error) {
	targets, err := e.Resolve(ids...)
	if err != nil {
		return nil, err
	}
	return e.Update(ctx, targets...)
}

// Update 把目标节点及其全部祖先更新到最新（对外导出）
// 失败即停：出现失败后不再提交新动作，等待已提交的动作结束后返回带节点ID的错误。
// ctx 取消时同样等待已提交动作结束，然后返回 ctx.Err()。
func (e *Engine) Update(ctx context.Context, targets ...*node.Node) (*RunResult, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("没有要更新的节点")
	}
	for _, t := range targets {
		if t == nil || t.Graph() != e.graph {
			return nil, fmt.Errorf("节点 %v 不属于当前图", t)
		}
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	order := dag.Traverse(targets...)
	for _, n := range order {
		n.Reset()
	}

	run := node.NewRun(ctx, uuid.NewString())
	result := &RunResult{
		RunID:     run.ID(),
		Targets:   dag.IDs(targets),
		StartedAt: time.Now(),
	}
	publisher := e.graph.Publisher()
	publisher.Publish(events.NewEvent(events.EventRunStarted, run.ID(), "").
		WithMetadata("targets", fmt.Sprint(result.Targets)))
	log.Printf("🚀 [更新开始] RunID=%s, 目标=%v, 节点数=%d", run.ID(), result.Targets, len(order))

	err := e.loop(ctx, run, order)

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt).Milliseconds()
	result.Dispatched = run.Dispatched()
	result.UpToDate = run.UpToDate()
	result.States = make(map[string]node.State, len(order))
	for _, n := range order {
		result.States[n.ID()] = n.State()
	}

	if err != nil {
		result.Status = RunStatusFailed
		result.Error = err.Error()
		result.FailedNode, _ = node.FailedNode(err)
		publisher.Publish(events.NewEvent(events.EventRunFailed, run.ID(), result.FailedNode).WithError(err))
		log.Printf("❌ [更新失败] RunID=%s, 错误=%v", run.ID(), err)
	} else {
		result.Status = RunStatusFinished
		publisher.Publish(events.NewEvent(events.EventRunFinished, run.ID(), ""))
		log.Printf("✅ [更新完成] RunID=%s, 执行=%d, 无需更新=%d, 耗时=%dms",
			run.ID(), len(result.Dispatched), len(result.UpToDate), result.Duration)
	}

	e.mu.Lock()
	e.lastRun = result
	e.mu.Unlock()
	return result, err
}

// loop 不动点循环：每轮推动所有未更新的节点，轮与轮之间等待完成信号
func (e *Engine) loop(ctx context.Context, run *node.Run, order []*node.Node) error {
	for {
		before := run.Progress()
		pending := 0
		for _, n := range order {
			if n.IsUpdated() {
				continue
			}
			pending++
			if err := n.Trigger(run); err != nil {
				run.Halt(err)
				break
			}
		}
		if pending == 0 {
			return nil
		}

		if err := run.Err(); err != nil {
			e.drain(run)
			return err
		}
		if err := ctx.Err(); err != nil {
			run.Halt(nil)
			e.drain(run)
			return err
		}

		if run.InFlight() == 0 {
			if run.Progress() == before {
				return fmt.Errorf("更新停滞: %d 个节点无法推进", pending)
			}
			continue
		}

		select {
		case <-run.Wake():
		case <-ctx.Done():
		case <-time.After(e.pollInterval):
		}
	}
}

// drain 等待已提交的动作全部结束
func (e *Engine) drain(run *node.Run) {
	if run.InFlight() > 0 {
		log.Printf("⏳ [等待动作结束] RunID=%s, 进行中=%d", run.ID(), run.InFlight())
	}
	for run.InFlight() > 0 {
		select {
		case <-run.Wake():
		case <-time.After(e.pollInterval):
		}
	}
}
