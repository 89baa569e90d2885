package node

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/storage"
	"github.com/LENAX/depman/pkg/storage/memory"
	"github.com/stretchr/testify/require"
)

// manualPool 由测试手动完成动作的执行池
type manualPool struct {
	mu        sync.Mutex
	submitted []*executor.PendingAction
	handles   map[string]*executor.Handle
	finished  map[string]bool
	submitErr error
}

func newManualPool() *manualPool {
	return &manualPool{handles: make(map[string]*executor.Handle), finished: make(map[string]bool)}
}

func (p *manualPool) SubmitAction(pending *executor.PendingAction) (*executor.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	p.submitted = append(p.submitted, pending)
	h := executor.NewHandle(pending.NodeID)
	p.handles[pending.NodeID] = h
	return h, nil
}

// ids 按提交顺序返回节点ID
func (p *manualPool) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.submitted))
	for i, s := range p.submitted {
		ids[i] = s.NodeID
	}
	return ids
}

// unfinished 返回尚未完成的节点ID
func (p *manualPool) unfinished() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for _, s := range p.submitted {
		if !p.finished[s.NodeID] {
			ids = append(ids, s.NodeID)
		}
	}
	return ids
}

// finish 完成指定节点的动作：先回调，再结束句柄
func (p *manualPool) finish(t *testing.T, nodeID string, err error) {
	t.Helper()
	p.mu.Lock()
	var pending *executor.PendingAction
	for _, s := range p.submitted {
		if s.NodeID == nodeID && !p.finished[nodeID] {
			pending = s
		}
	}
	require.NotNil(t, pending, "节点 %s 没有未完成的动作", nodeID)
	p.finished[nodeID] = true
	handle := p.handles[nodeID]
	p.mu.Unlock()

	result := &executor.ActionResult{NodeID: nodeID, ActionName: pending.ActionName, Status: executor.StatusSuccess}
	if err != nil {
		result.Status = executor.StatusFailed
		result.Error = err
	}
	pending.OnComplete(result)
	handle.Complete(result)
}

// settle 反复推动节点并完成所有已提交动作，直到全部更新
func settle(t *testing.T, pool *manualPool, run *Run, nodes ...*Node) {
	t.Helper()
	for i := 0; i < 100; i++ {
		done := true
		for _, n := range nodes {
			if n.IsUpdated() {
				continue
			}
			done = false
			require.NoError(t, n.Trigger(run))
		}
		if done {
			return
		}
		for _, id := range pool.unfinished() {
			pool.finish(t, id, nil)
		}
	}
	t.Fatalf("节点未能在限定轮次内全部更新")
}

func newTestGraph(t *testing.T, store storage.HashStore, opts ...GraphOption) (*Graph, *manualPool) {
	t.Helper()
	pool := newManualPool()
	g, err := NewGraph(store, pool, opts...)
	require.NoError(t, err)
	return g, pool
}

// faultyStore 可注入读写错误的存储
type faultyStore struct {
	*memory.HashStore
	getErr error
	putErr error
}

func (s *faultyStore) Get(ctx context.Context, id string) (*storage.HashRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.HashStore.Get(ctx, id)
}

func (s *faultyStore) Put(ctx context.Context, record *storage.HashRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.HashStore.Put(ctx, record)
}

// cancelingStore 读取时取消运行上下文，传入的ctx已结束时返回ctx错误
type cancelingStore struct {
	*memory.HashStore
	cancel context.CancelFunc
}

func (s *cancelingStore) Get(ctx context.Context, id string) (*storage.HashRecord, error) {
	s.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.HashStore.Get(ctx, id)
}

var errBoom = errors.New("boom")
