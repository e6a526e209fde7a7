// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"apicatalog/internal/config"
	"apicatalog/internal/platform/database"
)

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.New(context.Background(), config.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
