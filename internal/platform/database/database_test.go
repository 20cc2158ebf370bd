package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classreg/internal/platform/config"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("file database uses WAL", func(t *testing.T) {
		db, err := OpenSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "classreg.db")})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		var mode string
		require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("in-memory database", func(t *testing.T) {
		db, err := OpenSQLite(ctx, config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})
}

func TestOpenPostgresUnknownDriver(t *testing.T) {
	_, err := OpenPostgres(context.Background(), config.DatabaseConfig{Driver: "nope", URL: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open nope")
}
