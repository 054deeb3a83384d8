package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db         *sql.DB
	rulesCache map[string][]model.CategoryRule
	dbPath     string
	cacheMutex sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance. Foreign keys are
// enforced so category deletion cascades to rules and budgets and nulls out
// transaction references.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:         db,
		dbPath:     dbPath,
		rulesCache: make(map[string][]model.CategoryRule),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// cachedRules returns the cached rule list for a user, or nil when absent.
func (s *SQLiteStorage) cachedRules(userID string) []model.CategoryRule {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()
	rules, ok := s.rulesCache[userID]
	if !ok {
		return nil
	}
	out := make([]model.CategoryRule, len(rules))
	copy(out, rules)
	return out
}

// storeRulesCache replaces a user's cached rule list.
func (s *SQLiteStorage) storeRulesCache(userID string, rules []model.CategoryRule) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	cached := make([]model.CategoryRule, len(rules))
	copy(cached, rules)
	s.rulesCache[userID] = cached
}

// invalidateRulesCache drops a user's cached rules. Safe to call inside a
// transaction; the next read repopulates from the database.
func (s *SQLiteStorage) invalidateRulesCache(userID string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	delete(s.rulesCache, userID)
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Transaction methods delegate to the main storage with the transaction.

func (t *sqliteTransaction) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return t.storage.insertTransactionTx(ctx, t.tx, txn)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getTransactionByIDTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getTransactionsTx(ctx, t.tx, userID, filter)
}

func (t *sqliteTransaction) GetExpensesByPeriod(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getExpensesByPeriodTx(ctx, t.tx, userID, start, end)
}

func (t *sqliteTransaction) FingerprintExists(ctx context.Context, userID, fingerprint string) (bool, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return false, err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return false, err
	}
	return t.storage.fingerprintExistsTx(ctx, t.tx, userID, fingerprint)
}

func (t *sqliteTransaction) UpdateTransactionCategory(ctx context.Context, userID, id string, categoryID *int64, confirmed bool) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.updateTransactionCategoryTx(ctx, t.tx, userID, id, categoryID, confirmed)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getCategoriesTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) GetCategoryByID(ctx context.Context, userID string, id int64) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByIDTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByNameTx(ctx, t.tx, userID, name)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, userID string, params service.CategoryParams) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(params.Name, "name"); err != nil {
		return nil, err
	}
	return t.storage.createCategoryTx(ctx, t.tx, userID, params)
}

func (t *sqliteTransaction) DeleteCategory(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	t.storage.invalidateRulesCache(userID)
	return t.storage.deleteCategoryTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	// Bypass the cache inside transactions to read our own writes.
	return t.storage.getRulesTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) UpsertRule(ctx context.Context, userID, keyword string, categoryID int64, source model.RuleSource) (*model.CategoryRule, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}
	t.storage.invalidateRulesCache(userID)
	return t.storage.upsertRuleTx(ctx, t.tx, userID, keyword, categoryID, source)
}

func (t *sqliteTransaction) DeleteRule(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	t.storage.invalidateRulesCache(userID)
	return t.storage.deleteRuleTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetBudgets(ctx context.Context, userID string, month time.Time) ([]model.Budget, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getBudgetsTx(ctx, t.tx, userID, month)
}

func (t *sqliteTransaction) UpsertBudget(ctx context.Context, userID string, categoryID int64, month time.Time, amount float64) (*model.Budget, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.upsertBudgetTx(ctx, t.tx, userID, categoryID, month, amount)
}

func (t *sqliteTransaction) DeleteBudget(ctx context.Context, userID string, categoryID int64, month time.Time) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	return t.storage.deleteBudgetTx(ctx, t.tx, userID, categoryID, month)
}

func (t *sqliteTransaction) SumExpensesByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]float64, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.sumExpensesByCategoryTx(ctx, t.tx, userID, start, end)
}

func (t *sqliteTransaction) InsertAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}
	return t.storage.insertAlertTx(ctx, t.tx, alert)
}

func (t *sqliteTransaction) GetAlertByID(ctx context.Context, userID, id string) (*model.Alert, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getAlertByIDTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) GetAlerts(ctx context.Context, userID string, includeDismissed bool, limit int) ([]model.Alert, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getAlertsTx(ctx, t.tx, userID, includeDismissed, limit)
}

func (t *sqliteTransaction) MarkAlertRead(ctx context.Context, userID, id string) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.markAlertReadTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) DismissAlert(ctx context.Context, userID, id string) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.dismissAlertTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) UnreadAlertCount(ctx context.Context, userID string) (int, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return 0, err
	}
	return t.storage.unreadAlertCountTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) AlertExists(ctx context.Context, userID, dedupeKey string, since time.Time) (bool, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return false, err
	}
	if err := validateString(dedupeKey, "dedupeKey"); err != nil {
		return false, err
	}
	return t.storage.alertExistsTx(ctx, t.tx, userID, dedupeKey, since)
}

func (t *sqliteTransaction) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.getGoalsTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) UpsertGoal(ctx context.Context, userID, name string, targetAmount float64) (*model.Goal, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return t.storage.upsertGoalTx(ctx, t.tx, userID, name, targetAmount)
}

func (t *sqliteTransaction) DeleteGoal(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	return t.storage.deleteGoalTx(ctx, t.tx, userID, id)
}

func (t *sqliteTransaction) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportBatch(batch); err != nil {
		return err
	}
	return t.storage.createImportBatchTx(ctx, t.tx, batch)
}

func (t *sqliteTransaction) FinalizeImportBatch(ctx context.Context, userID, id string, status model.BatchStatus, created, duplicates, skipped int) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.finalizeImportBatchTx(ctx, t.tx, userID, id, status, created, duplicates, skipped)
}

func (t *sqliteTransaction) CategorySpendStats(ctx context.Context, userID string, start, end time.Time) ([]service.CategorySpendStat, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.categorySpendStatsTx(ctx, t.tx, userID, start, end)
}

func (t *sqliteTransaction) ActiveMonthsByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]int, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return t.storage.activeMonthsByCategoryTx(ctx, t.tx, userID, start, end)
}

func (t *sqliteTransaction) NetFlow(ctx context.Context, userID string, start, end time.Time) (float64, float64, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return 0, 0, err
	}
	return t.storage.netFlowTx(ctx, t.tx, userID, start, end)
}

// Migrate is not supported inside a transaction.
func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("cannot migrate within a transaction")
}

// BeginTx is not supported inside a transaction.
func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("cannot nest transactions")
}

// Close is a no-op inside a transaction.
func (t *sqliteTransaction) Close() error {
	return nil
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
