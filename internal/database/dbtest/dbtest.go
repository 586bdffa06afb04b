// Package dbtest opens throwaway sqlite databases migrated with the real
// schema, for tests that need a working storage layer.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/migration"
)

// Open returns connections to a fresh, fully migrated sqlite file inside t.TempDir().
// The pools are closed when the test ends.
func Open(t testing.TB) *database.Connections {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "storefront.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conns, err := database.Open(config.Database{
		Driver:       config.DriverSQLite,
		WriterDSN:    dsn,
		ReaderDSN:    dsn,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conns.Close() })

	m, err := migration.New(conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	return conns
}
