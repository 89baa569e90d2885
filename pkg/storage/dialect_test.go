package storage_test

import (
	"strings"
	"testing"

	"github.com/LENAX/depman/pkg/storage/mysql"
	"github.com/LENAX/depman/pkg/storage/postgres"
	"github.com/stretchr/testify/assert"
)

func TestPostgresDialect(t *testing.T) {
	d := postgres.NewPostgresDialect()
	sql := d.UpsertSQL("node_hash", []string{"node_id", "hash"}, "node_id", []string{"hash"})
	assert.Equal(t, "INSERT INTO node_hash (node_id, hash) VALUES (:node_id, :hash) ON CONFLICT (node_id) DO UPDATE SET hash = EXCLUDED.hash", sql)
	assert.Contains(t, d.CreateTableSQL("update_time DATETIME NOT NULL"), "TIMESTAMP")
}

func TestMySQLDialect(t *testing.T) {
	d := mysql.NewMySQLDialect()
	sql := d.UpsertSQL("node_hash", []string{"node_id", "hash"}, "node_id", []string{"hash"})
	assert.Equal(t, "INSERT INTO node_hash (node_id, hash) VALUES (:node_id, :hash) ON DUPLICATE KEY UPDATE hash = VALUES(hash)", sql)

	ddl := d.CreateTableSQL("CREATE TABLE IF NOT EXISTS node_hash (parents TEXT NOT NULL);")
	assert.True(t, strings.HasSuffix(ddl, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"))
	assert.Contains(t, ddl, "parents LONGTEXT")
}
