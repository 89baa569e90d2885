package engine

import (
	"context"
	"fmt"

	"github.com/LENAX/depman/pkg/core/dag"
	"github.com/LENAX/depman/pkg/core/node"
)

// PlanEntry 单个节点的预演结果
type PlanEntry struct {
	NodeID  string     `json:"node_id"`
	Parents []string   `json:"parents"`
	Level   int        `json:"level"`
	State   node.State `json:"state"`   // 按当前存储的分类
	Rebuild bool       `json:"rebuild"` // 可能执行动作；仅由父节点传播时，实际运行可能跳过
	Reason  string     `json:"reason"`
}

// PlanResult 预演结果（对外导出）
type PlanResult struct {
	Targets []string    `json:"targets"`
	Entries []PlanEntry `json:"entries"`
}

// Rebuilds 返回可能执行动作的节点ID
// 父节点重新执行后哈希不变时，子节点实际分类为 ok，不会执行
func (p *PlanResult) Rebuilds() []string {
	var ids []string
	for _, e := range p.Entries {
		if e.Rebuild {
			ids = append(ids, e.NodeID)
		}
	}
	return ids
}

// Plan 预演一次更新：只读取存储并分类，不提交任何动作（对外导出）
// 父节点可能重新执行时，子节点即使当前分类为 ok 也标记为可能重新执行
func (e *Engine) Plan(ctx context.Context, targets ...*node.Node) (*PlanResult, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("没有要预演的节点")
	}

	order := dag.Traverse(targets...)
	level := make(map[string]int, len(order))
	for i, nodes := range dag.Levels(order) {
		for _, n := range nodes {
			level[n.ID()] = i
		}
	}

	result := &PlanResult{Targets: dag.IDs(targets), Entries: make([]PlanEntry, 0, len(order))}
	rebuild := make(map[string]bool, len(order))
	for _, n := range order {
		record, err := n.Record(ctx)
		if err != nil {
			return nil, err
		}
		hash, parents, err := n.Snapshot()
		if err != nil {
			return nil, err
		}

		entry := PlanEntry{
			NodeID:  n.ID(),
			Parents: n.ParentIDs(),
			Level:   level[n.ID()],
			State:   node.Classify(record, hash, parents),
		}
		entry.Rebuild = entry.State.NeedsRebuild()
		entry.Reason = entry.State.String()
		if !entry.Rebuild {
			for _, p := range entry.Parents {
				if rebuild[p] {
					entry.Rebuild = true
					entry.Reason = "parent " + p
					break
				}
			}
		}
		rebuild[n.ID()] = entry.Rebuild
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// PlanIDs 按节点ID预演；ids 为空时预演整个图
func (e *Engine) PlanIDs(ctx context.Context, ids ...string) (*PlanResult, error) {
	targets, err := e.Resolve(ids...)
	if err != nil {
		return nil, err
	}
	return e.Plan(ctx, targets...)
}
