package action

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultNoop(t *testing.T) {
	r := NewRegistry()
	fn := r.Get(NoopName)
	require.NotNil(t, fn)
	assert.NoError(t, fn(context.Background(), "a"))
	assert.Equal(t, []string{NoopName}, r.ListAll())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("compile", Noop))
	assert.Error(t, r.Register("compile", Noop))
	assert.Error(t, r.Register("", Noop))
	assert.Error(t, r.Register("nil", nil))
	assert.True(t, r.Exists("compile"))

	require.NoError(t, r.Unregister("compile"))
	assert.False(t, r.Exists("compile"))
	assert.Error(t, r.Unregister("compile"))
	assert.Nil(t, r.Get("compile"))
}

func TestShell_PassesNodeID(t *testing.T) {
	dir := t.TempDir()
	fn := Shell(dir, `printf "%s" "$DEPMAN_NODE" > out.txt`)
	require.NoError(t, fn(context.Background(), "node-7"))

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "node-7", string(data))
}

func TestShell_PassesRunID(t *testing.T) {
	dir := t.TempDir()
	fn := Shell(dir, `printf "%s" "$DEPMAN_RUN_ID" > run.txt`)
	require.NoError(t, fn(WithRunID(context.Background(), "run-42"), "n"))

	data, err := os.ReadFile(filepath.Join(dir, "run.txt"))
	require.NoError(t, err)
	assert.Equal(t, "run-42", string(data))
}

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFrom(ctx))
	assert.Empty(t, ActionNameFrom(ctx))

	ctx = WithActionName(WithRunID(ctx, "r"), "compile")
	assert.Equal(t, "r", RunIDFrom(ctx))
	assert.Equal(t, "compile", ActionNameFrom(ctx))
}

func TestShell_Failure(t *testing.T) {
	fn := Shell(t.TempDir(), "echo boom >&2; exit 3")
	err := fn(context.Background(), "n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommand_Empty(t *testing.T) {
	assert.Error(t, Command("")(context.Background(), "n"))
}
