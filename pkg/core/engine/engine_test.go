package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/depman/pkg/core/action"
	"github.com/LENAX/depman/pkg/core/events"
	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/core/node"
	"github.com/LENAX/depman/pkg/storage"
	"github.com/LENAX/depman/pkg/storage/memory"
	"github.com/LENAX/depman/pkg/storage/sqlite"
)

var errBoom = errors.New("boom")

// fixture 一个"进程"：注册中心、执行器、图和引擎，共享传入的存储
type fixture struct {
	store    storage.HashStore
	registry *action.Registry
	exec     *executor.Executor
	graph    *node.Graph
	engine   *Engine
	events   *events.Recorder

	mu         sync.Mutex
	calls      []string
	violations []string
}

func newFixture(t *testing.T, store storage.HashStore, workers int) *fixture {
	t.Helper()
	f := &fixture{store: store, registry: action.NewRegistry(), events: events.NewRecorder(nil)}

	// record 记录调用顺序，并检查父节点的哈希已经写入
	f.registry.MustRegister("record", func(ctx context.Context, nodeID string) error {
		n, _ := f.graph.Node(nodeID)
		for _, p := range n.Parents() {
			rec, err := f.store.Get(ctx, p.ID())
			if err != nil || rec == nil || !p.IsUpdated() {
				f.mu.Lock()
				f.violations = append(f.violations, nodeID+"<-"+p.ID())
				f.mu.Unlock()
			}
		}
		f.mu.Lock()
		f.calls = append(f.calls, nodeID)
		f.mu.Unlock()
		return nil
	})
	f.registry.MustRegister("fail", func(ctx context.Context, nodeID string) error {
		return errBoom
	})

	exec, err := executor.NewExecutor(f.registry, executor.Options{MaxWorkers: workers})
	require.NoError(t, err)
	exec.Start()
	t.Cleanup(func() { _ = exec.Shutdown() })
	f.exec = exec

	f.graph, err = node.NewGraph(store, exec, node.WithPublisher(f.events), node.WithActions(f.registry))
	require.NoError(t, err)
	f.engine, err = NewEngine(f.graph, Options{PollInterval: 50 * time.Millisecond})
	require.NoError(t, err)
	return f
}

func (f *fixture) node(t *testing.T, id string, opts ...node.NodeOption) *node.Node {
	t.Helper()
	opts = append([]node.NodeOption{node.WithID(id), node.WithAction("record")}, opts...)
	n, err := f.graph.NewNode(opts...)
	require.NoError(t, err)
	return n
}

func (f *fixture) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func TestUpdate_EndToEnd(t *testing.T) {
	store := memory.NewHashStore()
	f := newFixture(t, store, 4)
	content := "v1"
	a := f.node(t, "A", node.WithHasher(node.ValueHasher(func() string { return content })))
	b := f.node(t, "B", node.WithParents(a))
	ctx := context.Background()

	// 第一次：A 先于 B
	result, err := f.engine.Update(ctx, b)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"A", "B"}, f.takeCalls()); diff != "" {
		t.Errorf("执行顺序错误 (-want +got):\n%s", diff)
	}
	assert.Equal(t, RunStatusFinished, result.Status)
	assert.Equal(t, []string{"A", "B"}, result.Dispatched)
	assert.Equal(t, node.StateNew, result.States["A"])
	assert.Equal(t, node.StateNew, result.States["B"])
	assert.True(t, a.IsUpdated())
	assert.True(t, b.IsUpdated())

	// 第二次：没有变化，不执行任何动作
	result, err = f.engine.Update(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, f.takeCalls())
	assert.Empty(t, result.Dispatched)
	assert.Equal(t, []string{"A", "B"}, result.UpToDate)

	// 修改 A 的内容
	content = "v2"
	result, err = f.engine.Update(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, f.takeCalls())
	assert.Equal(t, node.StateChanged, result.States["A"])
	assert.Equal(t, node.StateParentsChanged, result.States["B"])

	assert.Empty(t, f.violations)
	assert.Same(t, result, f.engine.LastRun())
}

func TestUpdate_IdempotentAcrossProcesses(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), ".depman")
	declare := func(f *fixture) *node.Node {
		a := f.node(t, "A")
		b := f.node(t, "B")
		c := f.node(t, "C", node.WithParents(a, b))
		return f.node(t, "D", node.WithParents(c, a))
	}

	store, err := sqlite.NewHashStoreFromDSN(dsn)
	require.NoError(t, err)
	f1 := newFixture(t, store, 2)
	_, err = f1.engine.Update(context.Background(), declare(f1))
	require.NoError(t, err)
	assert.Len(t, f1.takeCalls(), 4)
	require.NoError(t, store.Close())

	store, err = sqlite.NewHashStoreFromDSN(dsn)
	require.NoError(t, err)
	defer store.Close()
	f2 := newFixture(t, store, 2)
	result, err := f2.engine.Update(context.Background(), declare(f2))
	require.NoError(t, err)
	assert.Empty(t, f2.takeCalls(), "重启后没有变化时不执行任何动作")
	assert.Len(t, result.UpToDate, 4)
}

func TestUpdate_ParentsCommitBeforeChildren(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 8)
	var layer []*node.Node
	for i := 0; i < 4; i++ {
		layer = append(layer, f.node(t, "root"+string(rune('a'+i))))
	}
	mid1 := f.node(t, "mid1", node.WithParents(layer[0], layer[1]))
	mid2 := f.node(t, "mid2", node.WithParents(layer[2], layer[3], layer[0]))
	top := f.node(t, "top", node.WithParents(mid2, mid1))

	_, err := f.engine.Update(context.Background(), top)
	require.NoError(t, err)
	calls := f.takeCalls()
	assert.Len(t, calls, 7)
	assert.Equal(t, "top", calls[len(calls)-1])
	assert.Empty(t, f.violations)
}

func TestUpdate_FailFast(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 4)
	a := f.node(t, "A", node.WithAction("fail"))
	b := f.node(t, "B", node.WithParents(a))
	c := f.node(t, "C", node.WithParents(b))

	result, err := f.engine.Update(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, node.ErrActionFailed))
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, RunStatusFailed, result.Status)
	assert.Equal(t, "A", result.FailedNode)
	assert.Contains(t, result.Error, "A")

	assert.Empty(t, f.takeCalls())
	assert.False(t, b.IsUpdated())
	assert.False(t, c.IsUpdated())
	assert.Equal(t, []string{"A"}, result.Dispatched)

	rec, err := f.store.Get(context.Background(), "B")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, []string{"A"}, f.events.NodesOf(events.EventRunFailed))
}

func TestUpdate_FailFastDrainsInFlight(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 4)
	var finished atomic.Bool
	f.registry.MustRegister("slow", func(ctx context.Context, nodeID string) error {
		time.Sleep(150 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	slow := f.node(t, "slow", node.WithAction("slow"))
	bad := f.node(t, "bad", node.WithAction("fail"))
	after := f.node(t, "after", node.WithParents(slow))

	_, err := f.engine.Update(context.Background(), after, bad)
	require.Error(t, err)
	assert.True(t, finished.Load(), "返回前等待进行中的动作结束")
	assert.True(t, slow.IsUpdated(), "已完成动作的结果照常提交")
	assert.False(t, after.IsUpdated(), "失败后不再提交新动作")
}

func TestUpdate_ParallelIndependentNodes(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 4)
	var active, peak atomic.Int32
	f.registry.MustRegister("wide", func(ctx context.Context, nodeID string) error {
		cur := active.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(60 * time.Millisecond)
		active.Add(-1)
		return nil
	})
	var roots []*node.Node
	for _, id := range []string{"w1", "w2", "w3", "w4"} {
		roots = append(roots, f.node(t, id, node.WithAction("wide")))
	}
	sink := f.node(t, "sink", node.WithParents(roots...))

	_, err := f.engine.Update(context.Background(), sink)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, peak.Load(), int32(2))
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestUpdate_ContextCanceled(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 2)
	f.registry.MustRegister("slow", func(ctx context.Context, nodeID string) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	a := f.node(t, "A", node.WithAction("slow"))
	b := f.node(t, "B", node.WithParents(a))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result, err := f.engine.Update(ctx, b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, RunStatusFailed, result.Status)
	assert.True(t, a.IsUpdated(), "取消前已提交的动作完成后仍写入存储")
	assert.False(t, b.IsUpdated())

	rec, err := f.store.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestUpdate_Events(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 2)
	a := f.node(t, "A")

	result, err := f.engine.Update(context.Background(), a)
	require.NoError(t, err)

	recorded := f.events.Events()
	require.NotEmpty(t, recorded)
	assert.Equal(t, events.EventRunStarted, recorded[0].Type)
	assert.Equal(t, events.EventRunFinished, recorded[len(recorded)-1].Type)
	for _, e := range recorded {
		assert.Equal(t, result.RunID, e.RunID)
	}
	assert.Equal(t, []string{"A"}, f.events.NodesOf(events.EventNodeUpdated))
}

func TestUpdate_InvalidTargets(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 1)
	_, err := f.engine.Update(context.Background())
	assert.Error(t, err)

	_, err = f.engine.UpdateIDs(context.Background(), "missing")
	assert.Error(t, err)

	other := newFixture(t, memory.NewHashStore(), 1)
	foreign := other.node(t, "X")
	_, err = f.engine.Update(context.Background(), foreign)
	assert.Error(t, err)
}

func TestUpdateIDs_AllNodes(t *testing.T) {
	f := newFixture(t, memory.NewHashStore(), 2)
	a := f.node(t, "A")
	f.node(t, "B", node.WithParents(a))
	f.node(t, "C")

	result, err := f.engine.UpdateIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, result.Dispatched)
}

func TestNewEngine_Defaults(t *testing.T) {
	_, err := NewEngine(nil, Options{})
	assert.Error(t, err)

	f := newFixture(t, memory.NewHashStore(), 1)
	eng, err := NewEngine(f.graph, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, eng.pollInterval)
	assert.Nil(t, eng.LastRun())
}

// cancelOnGetStore 第一次读取时取消运行上下文
type cancelOnGetStore struct {
	*memory.HashStore
	cancel context.CancelFunc
}

func (s *cancelOnGetStore) Get(ctx context.Context, id string) (*storage.HashRecord, error) {
	s.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.HashStore.Get(ctx, id)
}

func TestUpdate_CancelledWhileClassifying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, &cancelOnGetStore{HashStore: memory.NewHashStore(), cancel: cancel}, 1)
	a := f.node(t, "A")

	result, err := f.engine.Update(ctx, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, node.ErrStore))
	assert.Equal(t, RunStatusFailed, result.Status)
	assert.Empty(t, result.Dispatched)
	assert.Empty(t, f.takeCalls())
}
