package graphfile

import (
	"fmt"

	"github.com/begmaroman/go-dag"

	"github.com/LENAX/depman/pkg/core/node"
)

// vertex go-dag 顶点
type vertex struct {
	id string
}

// ID 实现 go-dag 的 Identifiable 接口
func (v *vertex) ID() string {
	return v.id
}

// Validate 校验节点声明：ID非空且唯一、父节点已声明、动作定义不冲突、无环
func (s *Spec) Validate() error {
	seen := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("第 %d 个节点缺少 id", i+1)
		}
		if seen[n.ID] {
			return &node.NodeError{Kind: node.ErrDuplicateID, NodeID: n.ID}
		}
		seen[n.ID] = true

		defined := 0
		for _, set := range []bool{n.Action != "", n.Shell != "", len(n.Command) > 0} {
			if set {
				defined++
			}
		}
		if defined > 1 {
			return fmt.Errorf("节点 %s: action、shell、command 只能设置一个", n.ID)
		}
	}
	for _, n := range s.Nodes {
		for _, p := range n.Parents {
			if !seen[p] {
				return fmt.Errorf("节点 %s: 父节点 %s 未声明", n.ID, p)
			}
		}
	}
	return s.checkAcyclic()
}

// checkAcyclic 用 go-dag 建图，添加边时检测循环
func (s *Spec) checkAcyclic() error {
	d := dag.NewDAG[*vertex]()
	for _, n := range s.Nodes {
		if _, err := d.AddVertex(&vertex{id: n.ID}); err != nil {
			return fmt.Errorf("添加节点 %s 失败: %w", n.ID, err)
		}
	}
	for _, n := range s.Nodes {
		for _, p := range n.Parents {
			if p == n.ID {
				return &node.NodeError{Kind: node.ErrCycle, NodeID: n.ID, Err: fmt.Errorf("%s -> %s", p, n.ID)}
			}
			if exists, _ := d.IsEdge(p, n.ID); exists {
				continue
			}
			if err := d.AddEdge(p, n.ID); err != nil {
				return &node.NodeError{Kind: node.ErrCycle, NodeID: n.ID, Err: fmt.Errorf("%s -> %s: %w", p, n.ID, err)}
			}
		}
	}
	return nil
}

// topoOrder 按声明顺序稳定地做拓扑排序，父节点总在子节点之前
func (s *Spec) topoOrder() []NodeSpec {
	pending := make(map[string]int, len(s.Nodes))
	children := make(map[string][]int, len(s.Nodes))
	for i, n := range s.Nodes {
		unique := make(map[string]bool, len(n.Parents))
		for _, p := range n.Parents {
			if !unique[p] {
				unique[p] = true
				children[p] = append(children[p], i)
			}
		}
		pending[n.ID] = len(unique)
	}

	order := make([]NodeSpec, 0, len(s.Nodes))
	done := make([]bool, len(s.Nodes))
	for len(order) < len(s.Nodes) {
		progressed := false
		for i, n := range s.Nodes {
			if done[i] || pending[n.ID] > 0 {
				continue
			}
			done[i] = true
			progressed = true
			order = append(order, n)
			for _, c := range children[n.ID] {
				pending[s.Nodes[c].ID]--
			}
		}
		if !progressed {
			break
		}
	}
	return order
}
