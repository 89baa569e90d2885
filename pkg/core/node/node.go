package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/storage"
)

// Node 依赖图节点（对外导出）
// ID 是节点唯一身份；父节点列表有序且构造后不可变
type Node struct {
	graph   *Graph
	id      string
	parents []*Node
	action  string
	hasher  Hasher

	mu        sync.Mutex
	status    Status
	state     State
	delivered bool // 本次运行是否已提交动作
	handle    *executor.Handle
	err       error
}

// NodeOption 节点构造选项
type NodeOption func(*Node)

// WithID 指定节点ID，不指定时自动生成
func WithID(id string) NodeOption {
	return func(n *Node) { n.id = id }
}

// WithParents 指定有序父节点
func WithParents(parents ...*Node) NodeOption {
	return func(n *Node) { n.parents = append([]*Node(nil), parents...) }
}

// WithAction 指定动作名称（在 action.Registry 中注册）
func WithAction(name string) NodeOption {
	return func(n *Node) {
		if name != "" {
			n.action = name
		}
	}
}

// WithHasher 指定内容哈希方式
func WithHasher(h Hasher) NodeOption {
	return func(n *Node) { n.hasher = h }
}

// ID 节点ID
func (n *Node) ID() string { return n.id }

// String 实现 fmt.Stringer
func (n *Node) String() string { return n.id }

// Parents 返回父节点列表副本
func (n *Node) Parents() []*Node {
	return append([]*Node(nil), n.parents...)
}

// ParentIDs 返回父节点ID（保持顺序）
func (n *Node) ParentIDs() []string {
	ids := make([]string, len(n.parents))
	for i, p := range n.parents {
		ids[i] = p.id
	}
	return ids
}

// Action 动作名称
func (n *Node) Action() string { return n.action }

// Graph 节点所属的图
func (n *Node) Graph() *Graph { return n.graph }

// ContentHash 当前内容摘要
func (n *Node) ContentHash() (string, error) {
	h, err := n.hasher.Hash(n.id)
	if err != nil {
		return "", newError(ErrHash, n.id, err)
	}
	return h, nil
}

// Snapshot 计算当前哈希与父节点快照，不读取存储也不检查父节点状态
func (n *Node) Snapshot() (string, []storage.ParentHash, error) {
	hash, err := n.ContentHash()
	if err != nil {
		return "", nil, err
	}
	parents := make([]storage.ParentHash, len(n.parents))
	for i, p := range n.parents {
		ph, err := p.ContentHash()
		if err != nil {
			return "", nil, err
		}
		parents[i] = storage.ParentHash{ID: p.id, Hash: ph}
	}
	return hash, parents, nil
}

// Classify 判断节点陈旧度，要求所有父节点已经是 updated
func (n *Node) Classify(ctx context.Context) (State, error) {
	if err := n.checkParents(); err != nil {
		return StateUndefined, err
	}
	record, err := n.graph.store.Get(ctx, n.id)
	if err != nil {
		return StateUndefined, newError(ErrStore, n.id, err)
	}
	hash, parents, err := n.Snapshot()
	if err != nil {
		return StateUndefined, err
	}
	return Classify(record, hash, parents), nil
}

// Record 读取节点在存储中的记录，不存在时返回nil
func (n *Node) Record(ctx context.Context) (*storage.HashRecord, error) {
	record, err := n.graph.store.Get(ctx, n.id)
	if err != nil {
		return nil, newError(ErrStore, n.id, err)
	}
	return record, nil
}

func (n *Node) checkParents() error {
	for _, p := range n.parents {
		if !p.IsUpdated() {
			return newError(ErrPrecondition, n.id, fmt.Errorf("父节点 %s 尚未更新", p.id))
		}
	}
	return nil
}

// Status 当前生命周期状态
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// State 本次运行的分类结果，未分类时为 StateUndefined
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// IsUpdated 本次运行是否已成功更新
func (n *Node) IsUpdated() bool {
	return n.Status() == StatusUpdated
}

// Failed 本次运行是否已失败
func (n *Node) Failed() bool {
	return n.Status() == StatusFailed
}

// Err 失败原因
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Handle 已提交动作的句柄，未提交时为nil
func (n *Node) Handle() *executor.Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handle
}

// Reset 清除上一次运行的临时状态
// 调用方需保证节点没有未完成的动作
func (n *Node) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = StatusPending
	n.state = StateUndefined
	n.delivered = false
	n.handle = nil
	n.err = nil
}
