package storage

import (
	"fmt"

	"github.com/LENAX/depman/pkg/storage"
	"github.com/LENAX/depman/pkg/storage/memory"
	"github.com/LENAX/depman/pkg/storage/mysql"
	"github.com/LENAX/depman/pkg/storage/postgres"
	pkgsqlite "github.com/LENAX/depman/pkg/storage/sqlite"
)

// 支持的存储类型
const (
	TypeSQLite   = "sqlite"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// NewHashStore 按类型创建哈希存储（内部方法）
// dbType: 存储类型（sqlite/mysql/postgres/memory）
// dsn: 数据库连接字符串，sqlite 为空时使用工作目录下的 .depman
func NewHashStore(dbType, dsn string) (storage.HashStore, error) {
	switch dbType {
	case TypeSQLite, "":
		store, err := pkgsqlite.NewHashStoreFromDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("create sqlite hash store failed: %w", err)
		}
		return store, nil
	case TypeMySQL:
		store, err := mysql.NewHashStoreFromDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("create mysql hash store failed: %w", err)
		}
		return store, nil
	case TypePostgres, "postgresql":
		store, err := postgres.NewHashStoreFromDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("create postgres hash store failed: %w", err)
		}
		return store, nil
	case TypeMemory:
		return memory.NewHashStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// SupportedTypes 返回支持的存储类型
func SupportedTypes() []string {
	return []string{TypeSQLite, TypeMySQL, TypePostgres, TypeMemory}
}
