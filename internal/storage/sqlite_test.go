//go:build cgo

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteKV {
	t.Helper()

	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "data", "ploomer.db"))
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLiteKV(t *testing.T) {
	t.Run("shared behaviour", func(t *testing.T) {
		exerciseKV(t, setupTestDB(t))
	})

	t.Run("persists across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ploomer.db")
		kv, err := NewSQLiteKV(path)
		require.NoError(t, err)
		require.NoError(t, kv.Set(context.Background(), "stories", "[]"))
		require.NoError(t, kv.Close())

		reopened, err := NewSQLiteKV(path)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.Get(context.Background(), "stories")
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	})

	t.Run("open via factory", func(t *testing.T) {
		kv, err := Open(BackendSQLite, t.TempDir())
		require.NoError(t, err)
		defer kv.Close()
		assert.IsType(t, &SQLiteKV{}, kv)
	})
}
