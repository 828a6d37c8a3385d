// Package dbtest opens throwaway, fully migrated databases for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mbolis/quick-survey/config"
	"github.com/mbolis/quick-survey/database"
)

func Open(t testing.TB) *sql.DB {
	t.Helper()

	cfg := config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
