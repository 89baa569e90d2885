package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LENAX/depman/pkg/storage/dao"
	"github.com/jmoiron/sqlx"
)

const nodeHashTable = "node_hash"

// nodeHashSchema node_hash表DDL（SQLite风格，由Dialect转换）
const nodeHashSchema = `
CREATE TABLE IF NOT EXISTS node_hash (
	node_id VARCHAR(255) PRIMARY KEY,
	hash TEXT NOT NULL,
	parents TEXT NOT NULL,
	update_time DATETIME NOT NULL
);
`

// SQLHashStore 基于sqlx的HashStore实现（对外导出）
// SQLite/MySQL/PostgreSQL 共用，差异由Dialect处理
type SQLHashStore struct {
	db        *sqlx.DB
	dialect   Dialect
	upsertSQL string
	selectSQL string
}

// NewSQLHashStore 创建SQLHashStore并初始化表结构（对外导出）
func NewSQLHashStore(db *sqlx.DB, dialect Dialect) (*SQLHashStore, error) {
	s := &SQLHashStore{
		db:      db,
		dialect: dialect,
		upsertSQL: dialect.UpsertSQL(nodeHashTable,
			[]string{"node_id", "hash", "parents", "update_time"},
			"node_id",
			[]string{"hash", "parents", "update_time"}),
		selectSQL: db.Rebind(`SELECT node_id, hash, parents, update_time FROM node_hash WHERE node_id = ?`),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

// initSchema 初始化数据库表结构
func (s *SQLHashStore) initSchema() error {
	_, err := s.db.Exec(s.dialect.CreateTableSQL(nodeHashSchema))
	return err
}

// Dialect 返回当前方言
func (s *SQLHashStore) Dialect() Dialect {
	return s.dialect
}

// GetDB 获取底层数据库连接（对外导出）
func (s *SQLHashStore) GetDB() *sqlx.DB {
	return s.db
}

// Get 读取节点记录，不存在时返回 (nil, nil)
func (s *SQLHashStore) Get(ctx context.Context, nodeID string) (*HashRecord, error) {
	var row dao.NodeHashDAO
	if err := s.db.GetContext(ctx, &row, s.selectSQL, nodeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询节点 %s 哈希记录失败: %w", nodeID, err)
	}

	var parents []ParentHash
	if err := json.Unmarshal([]byte(row.Parents), &parents); err != nil {
		return nil, fmt.Errorf("解析节点 %s 父节点快照失败: %w", nodeID, err)
	}
	return &HashRecord{
		NodeID:    row.NodeID,
		Hash:      row.Hash,
		Parents:   parents,
		UpdatedAt: row.UpdateTime,
	}, nil
}

// Put 原子覆盖节点记录
// hash 与父节点快照保存在同一行，单条UPSERT即可保证不会出现半写状态
func (s *SQLHashStore) Put(ctx context.Context, record *HashRecord) error {
	if record == nil || record.NodeID == "" {
		return fmt.Errorf("节点记录不能为空")
	}
	parents := record.Parents
	if parents == nil {
		parents = []ParentHash{}
	}
	data, err := json.Marshal(parents)
	if err != nil {
		return fmt.Errorf("序列化节点 %s 父节点快照失败: %w", record.NodeID, err)
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	row := &dao.NodeHashDAO{
		NodeID:     record.NodeID,
		Hash:       record.Hash,
		Parents:    string(data),
		UpdateTime: updatedAt.UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, s.upsertSQL, row); err != nil {
		return fmt.Errorf("写入节点 %s 哈希记录失败: %w", record.NodeID, err)
	}
	return nil
}

// Close 关闭数据库连接（对外导出）
func (s *SQLHashStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// 确保实现接口
var _ HashStore = (*SQLHashStore)(nil)
