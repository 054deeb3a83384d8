package api

import (
	"context"
	"time"

	"github.com/Veraticus/solari/internal/model"
)

// RuleService covers the categorization operations the handlers call.
// Implemented by rules.Service.
type RuleService interface {
	AssignCategory(ctx context.Context, userID, transactionID string, categoryID *int64) (*model.Transaction, error)
	ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	CreateRule(ctx context.Context, userID, keyword string, categoryID int64) (*model.CategoryRule, error)
	DeleteRule(ctx context.Context, userID string, id int64) error
}

// Reconciler imports batches of raw statement rows. Implemented by
// importer.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, userID, source, fileName string, rows []model.RawRow) (*model.ImportResult, error)
}

// BudgetTracker saves and compares monthly budgets. Implemented by
// budget.Tracker.
type BudgetTracker interface {
	Compare(ctx context.Context, userID string, month time.Time) ([]model.BudgetComparison, error)
	Save(ctx context.Context, userID string, month time.Time, items []model.BudgetItem) ([]model.Budget, error)
}

// AlertEngine runs one alert-generation pass. Implemented by insight.Engine.
type AlertEngine interface {
	Generate(ctx context.Context, userID string) ([]model.Alert, error)
}

// Adviser produces advice text for one month. Implemented by
// insight.Adviser.
type Adviser interface {
	Advise(ctx context.Context, userID string, month time.Time) (string, error)
}
