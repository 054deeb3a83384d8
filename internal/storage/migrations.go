package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categories, transactions and category rules",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					color TEXT NOT NULL DEFAULT '',
					is_income BOOLEAN NOT NULL DEFAULT 0,
					parent_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, name)
				)`,
				`CREATE INDEX idx_categories_user ON categories(user_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					date DATE NOT NULL,
					description TEXT NOT NULL,
					normalized_description TEXT NOT NULL,
					amount REAL NOT NULL,
					direction TEXT NOT NULL CHECK (direction IN ('income', 'expense')),
					account TEXT NOT NULL DEFAULT '',
					fingerprint TEXT NOT NULL,
					category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
					category_confirmed BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, fingerprint)
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,

				`CREATE TABLE IF NOT EXISTS category_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					keyword TEXT NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					source TEXT NOT NULL DEFAULT 'learned' CHECK (source IN ('learned', 'manual')),
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, keyword)
				)`,
				`CREATE INDEX idx_category_rules_user ON category_rules(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Budgets and alerts",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					month DATETIME NOT NULL,
					amount REAL NOT NULL CHECK (amount > 0),
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, category_id, month)
				)`,
				`CREATE INDEX idx_budgets_user_month ON budgets(user_id, month)`,

				`CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('anomaly', 'insight', 'reminder', 'goal')),
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					icon TEXT NOT NULL DEFAULT '',
					dedupe_key TEXT NOT NULL DEFAULT '',
					related_data TEXT,
					is_read BOOLEAN NOT NULL DEFAULT 0,
					is_dismissed BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_alerts_user ON alerts(user_id, is_dismissed, created_at)`,
				`CREATE INDEX idx_alerts_dedupe ON alerts(user_id, dedupe_key, created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Savings goals and import batch audit",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS goals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					target_amount REAL NOT NULL CHECK (target_amount > 0),
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, name)
				)`,

				`CREATE TABLE IF NOT EXISTS import_batches (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					source TEXT NOT NULL,
					file_name TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'processed', 'error')),
					created_count INTEGER NOT NULL DEFAULT 0,
					duplicate_count INTEGER NOT NULL DEFAULT 0,
					skipped_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_import_batches_user ON import_batches(user_id, created_at)`,

				`ALTER TABLE transactions ADD COLUMN import_batch_id TEXT REFERENCES import_batches(id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending migrations and verifies the final schema
// version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
