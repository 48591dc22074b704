// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/agora/backend/internal/database"
)

var counter atomic.Int64

// New returns a migrated in-memory SQLite database private to the test.
// A single connection is used so that every statement sees the same
// in-memory database; code under test must only use the transaction
// handle inside db.Transaction callbacks.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:agora_test_%d?mode=memory&cache=shared", counter.Add(1))
	db, err := database.Open(sqlite.Open(dsn), gormlogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
