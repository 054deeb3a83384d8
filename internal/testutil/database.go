// Package testutil provides shared helpers for tests that need a real
// database: an in-memory SQLite store plus category seeding.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
	"github.com/Veraticus/solari/internal/storage"
)

// SetupDB creates a migrated in-memory SQLite store that is closed when the
// test finishes.
func SetupDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return store
}

// SeedCategories creates expense categories with the given names and returns
// a name-to-id map.
func SeedCategories(t *testing.T, store service.Storage, userID string, names ...string) map[string]int64 {
	t.Helper()

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		cat := SeedCategory(t, store, userID, name, false)
		ids[name] = cat.ID
	}
	return ids
}

// SeedCategory creates a single category.
func SeedCategory(t *testing.T, store service.Storage, userID, name string, isIncome bool) *model.Category {
	t.Helper()

	cat, err := store.CreateCategory(context.Background(), userID, service.CategoryParams{
		Name:     name,
		IsIncome: isIncome,
	})
	if err != nil {
		t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return cat
}
