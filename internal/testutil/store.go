// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"VinylShop/db"
)

// NewStore returns a migrated, ready in-memory SQLite store closed at test cleanup.
func NewStore(t testing.TB) *db.Store {
	t.Helper()

	store, err := db.OpenSQLite(":memory:", "silent")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := store.Sync(context.Background()); err != nil {
		t.Fatalf("sync schema: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
