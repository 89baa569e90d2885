package dao

import "time"

// NodeHashDAO node_hash表的数据访问对象（内部使用）
type NodeHashDAO struct {
	NodeID     string    `db:"node_id"`
	Hash       string    `db:"hash"`
	Parents    string    `db:"parents"` // JSON格式存储，保持父节点顺序
	UpdateTime time.Time `db:"update_time"`
}
