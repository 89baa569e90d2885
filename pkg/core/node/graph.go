// Package node 实现依赖图节点、陈旧度分类和节点更新状态机
package node

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/LENAX/depman/pkg/core/action"
	"github.com/LENAX/depman/pkg/core/events"
	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/storage"
)

// Graph 节点的构造上下文（对外导出）
// 持有ID计数器、哈希存储、执行池和事件发布者，同一进程中可以存在多个互不影响的Graph
type Graph struct {
	mu        sync.Mutex
	nextID    uint64
	nodes     map[string]*Node
	order     []*Node
	store     storage.HashStore
	pool      executor.Pool
	publisher events.Publisher
	actions   *action.Registry
	verbose   bool
}

// GraphOption Graph 构造选项
type GraphOption func(*Graph)

// WithPublisher 设置事件发布者
func WithPublisher(p events.Publisher) GraphOption {
	return func(g *Graph) {
		if p != nil {
			g.publisher = p
		}
	}
}

// WithVerbose 打开逐节点调试日志
func WithVerbose(verbose bool) GraphOption {
	return func(g *Graph) { g.verbose = verbose }
}

// WithActions 构造节点时校验动作名称是否已注册
func WithActions(r *action.Registry) GraphOption {
	return func(g *Graph) { g.actions = r }
}

// NewGraph 创建图上下文（对外导出）
func NewGraph(store storage.HashStore, pool executor.Pool, opts ...GraphOption) (*Graph, error) {
	if store == nil {
		return nil, fmt.Errorf("哈希存储不能为空")
	}
	if pool == nil {
		return nil, fmt.Errorf("执行池不能为空")
	}
	g := &Graph{
		nodes:     make(map[string]*Node),
		store:     store,
		pool:      pool,
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewNode 创建节点（对外导出）
// 父节点在构造时固定，之后不能修改，因此图天然无环
func (g *Graph) NewNode(opts ...NodeOption) (*Node, error) {
	n := &Node{
		graph:  g,
		action: action.NoopName,
		hasher: DefaultHasher,
	}
	for _, opt := range opts {
		opt(n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if n.id == "" {
		n.id = g.nextFreeIDLocked()
	}
	if _, exists := g.nodes[n.id]; exists {
		return nil, newError(ErrDuplicateID, n.id, nil)
	}
	for _, p := range n.parents {
		if p == nil || p.graph != g {
			return nil, newError(ErrForeignParent, n.id, nil)
		}
	}
	if n.hasher == nil {
		n.hasher = DefaultHasher
	}
	if g.actions != nil && !g.actions.Exists(n.action) {
		return nil, newError(ErrUnknownAction, n.id, fmt.Errorf("动作 %q", n.action))
	}

	g.nodes[n.id] = n
	g.order = append(g.order, n)
	return n, nil
}

// MustNode 同 NewNode，出错时 panic
func (g *Graph) MustNode(opts ...NodeOption) *Node {
	n, err := g.NewNode(opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// nextFreeIDLocked 自增计数器生成ID，跳过调用方已占用的ID
func (g *Graph) nextFreeIDLocked() string {
	for {
		id := strconv.FormatUint(g.nextID, 10)
		g.nextID++
		if _, taken := g.nodes[id]; !taken {
			return id
		}
	}
}

// Node 按ID查找节点
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes 按创建顺序返回所有节点
func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Node(nil), g.order...)
}

// IDs 返回排序后的所有节点ID
func (g *Graph) IDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store 返回哈希存储
func (g *Graph) Store() storage.HashStore {
	return g.store
}

// Publisher 返回事件发布者
func (g *Graph) Publisher() events.Publisher {
	return g.publisher
}

// Verbose 是否输出逐节点调试日志
func (g *Graph) Verbose() bool {
	return g.verbose
}

func (g *Graph) debugf(format string, args ...interface{}) {
	if g.verbose {
		log.Printf(format, args...)
	}
}
