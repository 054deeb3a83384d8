// Package budget compares planned monthly spend against actual transactions.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Tracker owns budget reads and writes for a storage backend.
type Tracker struct {
	store service.Storage
	log   *slog.Logger
}

// NewTracker creates a Tracker backed by the given storage.
func NewTracker(store service.Storage) *Tracker {
	return &Tracker{
		store: store,
		log:   slog.Default().With("component", "budget"),
	}
}

// Compare reports planned against actual spend for every budgeted category
// in the month. Spend is the sum of absolute expense amounts; categories
// with spend but no budget are left out. Rows come back ordered by
// percentage used so the most stressed budget is first, with category id
// breaking ties.
func (t *Tracker) Compare(ctx context.Context, userID string, month time.Time) ([]model.BudgetComparison, error) {
	monthStart := model.MonthStart(month)

	budgets, err := t.store.GetBudgets(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []model.BudgetComparison{}, nil
	}

	spent, err := t.store.SumExpensesByCategory(ctx, userID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	categories, err := t.store.GetCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	comparisons := make([]model.BudgetComparison, 0, len(budgets))
	for _, b := range budgets {
		used := spent[b.CategoryID]
		comparisons = append(comparisons, model.BudgetComparison{
			CategoryID:   b.CategoryID,
			CategoryName: names[b.CategoryID],
			Budgeted:     b.Amount,
			Spent:        used,
			Difference:   b.Amount - used,
			Percentage:   used / b.Amount * 100,
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		if comparisons[i].Percentage != comparisons[j].Percentage {
			return comparisons[i].Percentage > comparisons[j].Percentage
		}
		return comparisons[i].CategoryID < comparisons[j].CategoryID
	})
	return comparisons, nil
}

// Save bulk-writes a month's budgets in one storage transaction. Positive
// amounts upsert, zero deletes the row for that category, negative or NaN
// amounts fail the call before anything is written. An unknown category id
// rolls the whole batch back.
func (t *Tracker) Save(ctx context.Context, userID string, month time.Time, items []model.BudgetItem) ([]model.Budget, error) {
	for _, item := range items {
		if math.IsNaN(item.Amount) || item.Amount < 0 {
			return nil, fmt.Errorf("%w: budget amount for category %d must be zero or positive",
				common.ErrValidation, item.CategoryID)
		}
	}

	monthStart := model.MonthStart(month)
	tx, err := t.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]model.Budget, 0, len(items))
	for _, item := range items {
		if item.Amount == 0 {
			if err := tx.DeleteBudget(ctx, userID, item.CategoryID, monthStart); err != nil {
				return nil, err
			}
			continue
		}
		budget, err := tx.UpsertBudget(ctx, userID, item.CategoryID, monthStart, item.Amount)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *budget)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit budget save: %w", err)
	}

	t.log.Info("budgets saved",
		"user", userID,
		"month", model.MonthKey(monthStart),
		"items", len(items))
	return saved, nil
}
