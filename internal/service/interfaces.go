// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/solari/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Every query is additionally scoped to one user.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64
	Limit      int
	Offset     int
}

// CategoryParams carries the writable fields of a category.
type CategoryParams struct {
	Name     string
	Color    string
	ParentID *int64
	IsIncome bool
}

// CategorySpendStat aggregates one category's expenses over a window.
type CategorySpendStat struct {
	CategoryID int64
	Count      int
	Total      float64 // Sum of absolute amounts
	Average    float64 // Mean absolute amount
}

// Storage defines the contract for our persistence layer. All operations
// are scoped to the owning user passed explicitly.
type Storage interface {
	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	GetExpensesByPeriod(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)
	FingerprintExists(ctx context.Context, userID, fingerprint string) (bool, error)
	UpdateTransactionCategory(ctx context.Context, userID, id string, categoryID *int64, confirmed bool) error

	// Category operations
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, userID string, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID string, params CategoryParams) (*model.Category, error)
	DeleteCategory(ctx context.Context, userID string, id int64) error

	// Category rule operations
	GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	UpsertRule(ctx context.Context, userID, keyword string, categoryID int64, source model.RuleSource) (*model.CategoryRule, error)
	DeleteRule(ctx context.Context, userID string, id int64) error

	// Budget operations
	GetBudgets(ctx context.Context, userID string, month time.Time) ([]model.Budget, error)
	UpsertBudget(ctx context.Context, userID string, categoryID int64, month time.Time, amount float64) (*model.Budget, error)
	DeleteBudget(ctx context.Context, userID string, categoryID int64, month time.Time) error
	SumExpensesByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]float64, error)

	// Alert operations
	InsertAlert(ctx context.Context, alert *model.Alert) error
	GetAlertByID(ctx context.Context, userID, id string) (*model.Alert, error)
	GetAlerts(ctx context.Context, userID string, includeDismissed bool, limit int) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, userID, id string) error
	DismissAlert(ctx context.Context, userID, id string) error
	UnreadAlertCount(ctx context.Context, userID string) (int, error)
	AlertExists(ctx context.Context, userID, dedupeKey string, since time.Time) (bool, error)

	// Goal operations
	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
	UpsertGoal(ctx context.Context, userID, name string, targetAmount float64) (*model.Goal, error)
	DeleteGoal(ctx context.Context, userID string, id int64) error

	// Import batch operations
	CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error
	FinalizeImportBatch(ctx context.Context, userID, id string, status model.BatchStatus, created, duplicates, skipped int) error

	// Aggregations
	CategorySpendStats(ctx context.Context, userID string, start, end time.Time) ([]CategorySpendStat, error)
	ActiveMonthsByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]int, error)
	NetFlow(ctx context.Context, userID string, start, end time.Time) (income, expenses float64, err error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// RowFetcher retrieves raw statement rows from a remote source, ready for
// reconciliation.
type RowFetcher interface {
	FetchRows(ctx context.Context, startDate, endDate time.Time) ([]model.RawRow, error)
}
