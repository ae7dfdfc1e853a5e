package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/siteingest/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates empty pages table at current schema version", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n))
		assert.Zero(t, n)

		var version int
		require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
		assert.Equal(t, 1, version)
	})

	t.Run("fails when the directory does not exist", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/pages.db")

		require.Error(t, db.Open())
	})

	t.Run("uses WAL journal for files", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(t.TempDir() + "/pages.db")
		require.NoError(t, db.Open())
		defer db.Close()

		var mode string
		require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("refuses a database from a newer version", func(t *testing.T) {
		t.Parallel()

		path := t.TempDir() + "/pages.db"
		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(context.Background(), "PRAGMA user_version = 99")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		err = sqlite.NewDB(path).Open()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "newer than supported")
	})
}

func TestDB_Open_KeepsExistingPages(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/pages.db"
	ctx := context.Background()

	first := sqlite.NewDB(path)
	require.NoError(t, first.Open())
	_, err := first.ExecContext(ctx,
		"INSERT INTO pages (id, url, host, captured_at) VALUES ('1', 'https://example.com/', 'example.com', '2024-01-01T00:00:00Z')")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := sqlite.NewDB(path)
	require.NoError(t, second.Open())
	defer second.Close()

	var n int
	require.NoError(t, second.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDB_Close_Unopened(t *testing.T) {
	t.Parallel()

	assert.NoError(t, sqlite.NewDB(":memory:").Close())
}
