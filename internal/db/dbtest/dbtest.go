// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"computegate/internal/config"
	"computegate/internal/db"
)

// Open returns a migrated database private to t. It is closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	cfg := config.Default()
	cfg.DatabaseURL = fmt.Sprintf("sqlite://file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	gdb, err := db.Connect(cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// A shared-cache memory database locks per table; one connection keeps
	// concurrent test goroutines from tripping over each other.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return gdb
}
