package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LENAX/depman/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStore_GetMissing(t *testing.T) {
	store, err := NewHashStoreFromDSN(filepath.Join(t.TempDir(), "missing.db"))
	require.NoError(t, err)
	defer store.Close()

	record, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestHashStore_PutGetPreservesParentOrder(t *testing.T) {
	store, err := NewHashStoreFromDSN(filepath.Join(t.TempDir(), "order.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	parents := []storage.ParentHash{
		{ID: "b", Hash: "hb"},
		{ID: "a", Hash: "ha"},
		{ID: "b", Hash: "hb"},
	}
	require.NoError(t, store.Put(ctx, &storage.HashRecord{NodeID: "c", Hash: "hc", Parents: parents}))

	record, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "hc", record.Hash)
	assert.Equal(t, parents, record.Parents)
	assert.False(t, record.UpdatedAt.IsZero())
}

func TestHashStore_PutOverwrites(t *testing.T) {
	store, err := NewHashStoreFromDSN(filepath.Join(t.TempDir(), "overwrite.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &storage.HashRecord{
		NodeID:  "n",
		Hash:    "h1",
		Parents: []storage.ParentHash{{ID: "p1", Hash: "x"}, {ID: "p2", Hash: "y"}},
	}))
	require.NoError(t, store.Put(ctx, &storage.HashRecord{NodeID: "n", Hash: "h2"}))

	record, err := store.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "h2", record.Hash)
	assert.Empty(t, record.Parents)
}

func TestHashStore_SurvivesReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), ".depman")
	ctx := context.Background()

	store, err := NewHashStoreFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &storage.HashRecord{
		NodeID:  "b",
		Hash:    "hb",
		Parents: []storage.ParentHash{{ID: "a", Hash: "ha"}},
	}))
	require.NoError(t, store.Close())

	reopened, err := NewHashStoreFromDSN(dsn)
	require.NoError(t, err)
	defer reopened.Close()

	record, err := reopened.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{"a"}, record.ParentIDs())
}

func TestHashStore_ConcurrentWritersDistinctIDs(t *testing.T) {
	store, err := NewHashStoreFromDSN(filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	ids := strings.Split("a b c d e f g h i j k l m n o p", " ")

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- store.Put(ctx, &storage.HashRecord{NodeID: id, Hash: "h-" + id})
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		record, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, record, "节点 %s 记录丢失", id)
		assert.Equal(t, "h-"+id, record.Hash)
	}
}

func TestSQLiteDialect_UpsertSQL(t *testing.T) {
	d := NewSQLiteDialect()
	sql := d.UpsertSQL("node_hash", []string{"node_id", "hash"}, "node_id", []string{"hash"})
	assert.Equal(t, "INSERT OR REPLACE INTO node_hash (node_id, hash) VALUES (:node_id, :hash)", sql)
	assert.Equal(t, "sqlite", d.Name())
}
