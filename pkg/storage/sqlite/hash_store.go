package sqlite

import (
	"fmt"

	"github.com/LENAX/depman/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDSN 默认存储文件（每个工作目录一个）
const DefaultDSN = ".depman"

// NewHashStoreFromDSN 通过DSN创建SQLite哈希存储（对外导出）
// dsn 为空时使用当前目录下的 .depman 文件
func NewHashStoreFromDSN(dsn string) (*storage.SQLHashStore, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 单连接：避免多连接写锁竞争，同时让 :memory: 在所有调用间共享同一个库
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 配置SQLite优化
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("配置SQLite失败: %w", err)
	}

	store, err := storage.NewSQLHashStore(db, NewSQLiteDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// configureSQLite 配置SQLite数据库连接
func configureSQLite(db *sqlx.DB) error {
	for _, pragma := range NewSQLiteDialect().ConfigureDB() {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
