package storage

import (
	"context"
	"time"
)

// ParentHash 父节点快照条目（对外导出）
// 记录某个父节点在子节点最近一次成功更新时的哈希值
type ParentHash struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// HashRecord 节点哈希记录（对外导出）
// Hash 与 Parents 总是在同一次更新中原子写入
type HashRecord struct {
	NodeID    string       `json:"node_id"`
	Hash      string       `json:"hash"`
	Parents   []ParentHash `json:"parents"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Clone 返回记录的深拷贝
func (r *HashRecord) Clone() *HashRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Parents = append([]ParentHash(nil), r.Parents...)
	return &out
}

// ParentIDs 返回快照中的父节点ID（保持顺序）
func (r *HashRecord) ParentIDs() []string {
	ids := make([]string, len(r.Parents))
	for i, p := range r.Parents {
		ids[i] = p.ID
	}
	return ids
}

// HashStore 节点哈希持久化存储接口（对外导出）
type HashStore interface {
	// Get 读取节点记录，记录不存在时返回 (nil, nil)
	Get(ctx context.Context, nodeID string) (*HashRecord, error)
	// Put 原子覆盖节点记录（hash 与父节点快照一起写入）
	Put(ctx context.Context, record *HashRecord) error
	// Close 刷新并释放底层资源
	Close() error
}
