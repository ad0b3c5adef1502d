package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RunMigrations(context.Background(), db))
	require.True(t, db.Migrator().HasTable("profiles"))
	require.True(t, db.Migrator().HasTable("private_photo_access"))
}

func TestRunMigrations_WrapsErrors(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = RunMigrations(context.Background(), db)
	require.ErrorContains(t, err, "sqlite: migrate:")
}
