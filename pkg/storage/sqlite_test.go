package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_CreatesParentDirectories(t *testing.T) {
	ctx := context.Background()

	// The default path lives under a dot-directory that does not exist on
	// first start; opening must create it.
	path := filepath.Join(t.TempDir(), ".fieldsync", "fieldsync.db")
	s, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Write(ctx, "worker_tasks", []byte(`[]`)))
	data, err := s.Read(ctx, "worker_tasks")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSQLiteStorage_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	_, err := s.Read(ctx, "worker_tasks")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "worker_tasks", []byte(`[{"id":"t-1"}]`)))
	require.NoError(t, s.Write(ctx, "worker_tasks", []byte(`[]`)))

	data, err := s.Read(ctx, "worker_tasks")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	exists, err := s.Exists(ctx, "worker_tasks")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "worker_tasks"))
	err = s.Delete(ctx, "worker_tasks")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	require.NoError(t, s.Write(ctx, "worker_chat_t-1", []byte(`[]`)))
	require.NoError(t, s.Write(ctx, "worker_chat_t-2", []byte(`[]`)))
	require.NoError(t, s.Write(ctx, "worker_auth", []byte(`{}`)))

	keys, err := s.List(ctx, "worker_chat_")
	require.NoError(t, err)
	assert.Equal(t, []string{"worker_chat_t-1", "worker_chat_t-2"}, keys)
}
