package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownScheme(t *testing.T) {
	_, err := New(context.Background(), "mysql://localhost/redmine")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	var applied int
	require.NoError(t, db.GetContext(ctx, &applied, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"projects", "users", "issues", "reminders"} {
		var n int
		err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestForeignKeysCascade(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, "sqlite:file::memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	db.MustExecContext(ctx, "INSERT INTO projects (id, name) VALUES (1, 'Ops')")
	db.MustExecContext(ctx, `INSERT INTO reminders (project_id, created_by_id, content, send_date, send_time)
		VALUES (1, 1, 'x', '2024-03-04', '2024-03-04 02:00:00+00:00')`)
	db.MustExecContext(ctx, "DELETE FROM projects WHERE id = 1")

	var n int
	require.NoError(t, db.GetContext(ctx, &n, "SELECT COUNT(*) FROM reminders"))
	assert.Zero(t, n)
}

func TestTryLockOnSQLiteAlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	release, ok, err := db.TryLock(ctx, ScanLockKey)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}
