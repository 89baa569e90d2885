package node

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LENAX/depman/pkg/core/events"
	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/storage"
)

// Trigger 推动节点向 updated 前进一步（对外导出）
// 可以重复调用：父节点未全部更新时先递归推动父节点；分类为 ok 时直接提交哈希；
// 否则把动作提交到执行池，每次运行最多一次。动作完成由回调处理，这里不会等待。
// 返回非nil错误表示运行必须终止。
func (n *Node) Trigger(run *Run) error {
	if done, err := n.terminal(); done {
		return err
	}

	var waiting []*Node
	for _, p := range n.parents {
		if !p.IsUpdated() {
			waiting = append(waiting, p)
		}
	}
	if len(waiting) > 0 {
		if err := n.transition(StatusWaitingOnParents); err != nil {
			return err
		}
		n.graph.debugf("Node %s: wait parents %v", n.id, idsOf(waiting))
		for _, p := range waiting {
			if err := p.Trigger(run); err != nil {
				return err
			}
		}
		return nil
	}

	n.mu.Lock()
	if n.status.IsTerminal() {
		err := n.err
		n.mu.Unlock()
		return err
	}
	if n.delivered || run.Halted() {
		n.mu.Unlock()
		return nil
	}

	if n.state == StateUndefined {
		if err := n.transitionLocked(StatusClassifying); err != nil {
			n.mu.Unlock()
			return err
		}
		// 取消只停止提交新动作，不把读取失败算作存储错误
		state, err := n.Classify(context.WithoutCancel(run.ctx))
		if err != nil {
			n.failLocked(err)
			n.mu.Unlock()
			n.publish(run, events.EventNodeFailed, err)
			return err
		}
		n.state = state

		if state == StateOK {
			n.graph.debugf("Node %s: no changes", n.id)
			if err := n.commitLocked(run.ctx); err != nil {
				n.failLocked(err)
				n.mu.Unlock()
				n.publish(run, events.EventNodeFailed, err)
				return err
			}
			_ = n.transitionLocked(StatusUpdated)
			n.mu.Unlock()
			run.recordUpToDate(n.id)
			log.Printf("⏭️  Node %s: up to date", n.id)
			n.publish(run, events.EventNodeUpToDate, nil)
			return nil
		}
		n.graph.debugf("Node %s: %s", n.id, state)
	}

	if run.Halted() {
		n.mu.Unlock()
		return nil
	}
	n.delivered = true
	if err := n.transitionLocked(StatusDispatched); err != nil {
		n.mu.Unlock()
		return err
	}
	n.mu.Unlock()
	return n.dispatch(run)
}

// terminal 节点已是终态时返回 (true, 失败原因)
func (n *Node) terminal() (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status.IsTerminal() {
		return true, n.err
	}
	return false, nil
}

// dispatch 把动作提交到执行池，完成后由 complete 处理结果
func (n *Node) dispatch(run *Run) error {
	run.begin(n.id)
	n.graph.debugf("Node %s: submit to pool", n.id)
	n.publish(run, events.EventNodeDispatched, nil)

	handle, err := n.graph.pool.SubmitAction(&executor.PendingAction{
		NodeID:     n.id,
		ActionName: n.action,
		RunID:      run.id,
		OnComplete: func(result *executor.ActionResult) {
			n.complete(run, result)
		},
	})
	if err != nil {
		ferr := newError(ErrActionFailed, n.id, fmt.Errorf("提交动作失败: %w", err))
		n.mu.Lock()
		n.failLocked(ferr)
		n.mu.Unlock()
		run.end()
		n.publish(run, events.EventNodeFailed, ferr)
		return ferr
	}

	n.mu.Lock()
	n.handle = handle
	n.mu.Unlock()
	return nil
}

// complete 动作完成回调，每个已提交的动作恰好调用一次
func (n *Node) complete(run *Run, result *executor.ActionResult) {
	defer run.end()

	if !result.Succeeded() {
		cause := error(fmt.Errorf("动作状态 %s", statusOf(result)))
		if result != nil && result.Error != nil {
			cause = result.Error
		}
		err := newError(ErrActionFailed, n.id, cause)
		n.mu.Lock()
		n.failLocked(err)
		n.mu.Unlock()
		run.Halt(err)
		log.Printf("❌ Node %s: %v", n.id, cause)
		n.publish(run, events.EventNodeFailed, err)
		return
	}

	n.mu.Lock()
	err := n.commitLocked(run.ctx)
	if err != nil {
		n.failLocked(err)
	} else {
		err = n.transitionLocked(StatusUpdated)
	}
	n.mu.Unlock()

	if err != nil {
		run.Halt(err)
		n.publish(run, events.EventNodeFailed, err)
		return
	}
	log.Printf("✅ Node %s: updated", n.id)
	n.publish(run, events.EventNodeUpdated, nil)
}

// commitLocked 原子写入当前哈希和父节点快照，调用方持有 n.mu
// 已完成动作的结果即使运行被取消也要落盘
func (n *Node) commitLocked(ctx context.Context) error {
	if err := n.checkParents(); err != nil {
		return err
	}
	hash, parents, err := n.Snapshot()
	if err != nil {
		return err
	}
	record := &storage.HashRecord{
		NodeID:    n.id,
		Hash:      hash,
		Parents:   parents,
		UpdatedAt: time.Now(),
	}
	if err := n.graph.store.Put(context.WithoutCancel(ctx), record); err != nil {
		return newError(ErrStore, n.id, err)
	}
	return nil
}

func (n *Node) transition(to Status) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transitionLocked(to)
}

func (n *Node) transitionLocked(to Status) error {
	if !canTransition(n.status, to) {
		return newError(ErrInvalidState, n.id, fmt.Errorf("%s -> %s", n.status, to))
	}
	n.status = to
	return nil
}

func (n *Node) failLocked(err error) {
	if n.status.IsTerminal() {
		return
	}
	n.status = StatusFailed
	n.err = err
}

func (n *Node) publish(run *Run, eventType events.EventType, err error) {
	event := events.NewEvent(eventType, run.id, n.id).WithError(err)
	if state := n.State(); state != StateUndefined {
		event.WithState(state.String())
	}
	n.graph.publisher.Publish(event)
}

func statusOf(result *executor.ActionResult) string {
	if result == nil {
		return "unknown"
	}
	return result.Status
}

func idsOf(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, p := range nodes {
		ids[i] = p.id
	}
	return ids
}
