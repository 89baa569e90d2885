package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LENAX/depman/pkg/storage"
)

// HashStore 内存哈希存储实现（对外导出）
// 进程退出即丢失，用于测试和 --store memory 的一次性构建
type HashStore struct {
	mu      sync.RWMutex
	records map[string]*storage.HashRecord
	closed  bool
}

// NewHashStore 创建内存哈希存储实例（对外导出）
func NewHashStore() *HashStore {
	return &HashStore{
		records: make(map[string]*storage.HashRecord),
	}
}

// Get 读取节点记录
func (s *HashStore) Get(ctx context.Context, nodeID string) (*storage.HashRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("存储已关闭")
	}
	record, exists := s.records[nodeID]
	if !exists {
		return nil, nil
	}
	return record.Clone(), nil
}

// Put 覆盖节点记录
func (s *HashStore) Put(ctx context.Context, record *storage.HashRecord) error {
	if record == nil || record.NodeID == "" {
		return fmt.Errorf("节点记录不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("存储已关闭")
	}
	stored := record.Clone()
	if stored.Parents == nil {
		stored.Parents = []storage.ParentHash{}
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	s.records[record.NodeID] = stored
	return nil
}

// Len 返回记录数量
func (s *HashStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Delete 删除节点记录（仅供测试模拟“从未构建”）
func (s *HashStore) Delete(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, nodeID)
}

// Close 关闭存储
func (s *HashStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// 确保实现接口
var _ storage.HashStore = (*HashStore)(nil)
