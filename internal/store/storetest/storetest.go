// Package storetest opens a migrated sqlite-backed store for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"users/internal/store"
	"users/pkg/db"
)

func New(t testing.TB) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.db")
	gdb, err := db.OpenGorm(db.Config{DSN: "sqlite:" + path + "?_foreign_keys=on"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st := store.New(gdb)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return st
}
