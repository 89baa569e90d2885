package mysql

import (
	"fmt"
	"strings"

	"github.com/LENAX/depman/pkg/storage"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewHashStoreFromDSN 通过DSN创建MySQL哈希存储（对外导出）
// dsn格式: user:password@tcp(host:port)/dbname?parseTime=true
func NewHashStoreFromDSN(dsn string) (*storage.SQLHashStore, error) {
	db, err := sqlx.Open("mysql", ensureParseTime(dsn))
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 配置MySQL
	dialect := NewMySQLDialect()
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			// 忽略配置错误，继续执行
			continue
		}
	}

	store, err := storage.NewSQLHashStore(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// ensureParseTime 确保DSN包含parseTime=true
func ensureParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=true") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}
