package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// ---- Schema creation tests ----

func TestMigrateCreatesCurrentSchema(t *testing.T) {
	store := testStore(t)

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	tables := []string{
		"categories", "transactions", "category_rules",
		"budgets", "alerts", "goals", "import_batches",
	}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s not found", table)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	store := testStore(t)

	// The helper already migrated once; a second run has nothing to apply.
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestReopenPreservesData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "solari.db")

	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	seedTxn(t, store, "txn-1", "2026-08-10", "Blue Bottle Coffee", -4.50, nil)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("reopen NewSQLiteStorage: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("Migrate on reopen: %v", err)
	}

	got, err := reopened.GetTransactionByID(ctx, testUser, "txn-1")
	if err != nil {
		t.Fatalf("GetTransactionByID after reopen: %v", err)
	}
	if got.Description != "Blue Bottle Coffee" {
		t.Errorf("description = %q, want %q", got.Description, "Blue Bottle Coffee")
	}
}
