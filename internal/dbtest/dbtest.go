// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"testing"

	"keja/internal/config"
	"keja/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns a migrated, private in-memory SQLite database with foreign keys
// enforced. The database disappears when the test finishes.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBName:   "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
		IsProd:   true, // keep query logging quiet
	}
	conn, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
