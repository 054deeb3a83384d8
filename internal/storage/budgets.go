package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// GetBudgets returns the user's budget rows for a month, ordered by category.
func (s *SQLiteStorage) GetBudgets(ctx context.Context, userID string, month time.Time) ([]model.Budget, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getBudgetsTx(ctx, s.db, userID, month)
}

func (s *SQLiteStorage) getBudgetsTx(ctx context.Context, q queryable, userID string, month time.Time) ([]model.Budget, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, category_id, month, amount, created_at, updated_at
		FROM budgets
		WHERE user_id = ? AND month = ?
		ORDER BY category_id
	`, userID, model.MonthStart(month))
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.CategoryID,
			&b.Month,
			&b.Amount,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpsertBudget stores the planned amount for one (category, month),
// replacing any existing row. The amount must be positive; zero-amount
// budgets are deleted through DeleteBudget instead.
func (s *SQLiteStorage) UpsertBudget(ctx context.Context, userID string, categoryID int64, month time.Time, amount float64) (*model.Budget, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.upsertBudgetTx(ctx, s.db, userID, categoryID, month, amount)
}

func (s *SQLiteStorage) upsertBudgetTx(ctx context.Context, q queryable, userID string, categoryID int64, month time.Time, amount float64) (*model.Budget, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: budget amount must be positive, got %v", common.ErrValidation, amount)
	}

	var categoryExists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE user_id = ? AND id = ?)
	`, userID, categoryID).Scan(&categoryExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check category existence: %w", err)
	}
	if !categoryExists {
		return nil, fmt.Errorf("category %d: %w", categoryID, common.ErrNotFound)
	}

	monthStart := model.MonthStart(month)
	now := time.Now().UTC()
	_, err = q.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, month, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, category_id, month) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at
	`, userID, categoryID, monthStart, amount, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}

	var budget model.Budget
	err = q.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, month, amount, created_at, updated_at
		FROM budgets
		WHERE user_id = ? AND category_id = ? AND month = ?
	`, userID, categoryID, monthStart).Scan(
		&budget.ID,
		&budget.UserID,
		&budget.CategoryID,
		&budget.Month,
		&budget.Amount,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read back budget: %w", err)
	}
	return &budget, nil
}

// DeleteBudget removes the budget row for one (category, month). Deleting a
// row that does not exist is a no-op, so saving a zero amount is idempotent.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, userID string, categoryID int64, month time.Time) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	return s.deleteBudgetTx(ctx, s.db, userID, categoryID, month)
}

func (s *SQLiteStorage) deleteBudgetTx(ctx context.Context, q queryable, userID string, categoryID int64, month time.Time) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM budgets WHERE user_id = ? AND category_id = ? AND month = ?
	`, userID, categoryID, model.MonthStart(month))
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// SumExpensesByCategory totals the absolute amounts of expense transactions
// per category over [start, end). Uncategorized expenses are excluded.
func (s *SQLiteStorage) SumExpensesByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]float64, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.sumExpensesByCategoryTx(ctx, s.db, userID, start, end)
}

func (s *SQLiteStorage) sumExpensesByCategoryTx(ctx context.Context, q queryable, userID string, start, end time.Time) (map[int64]float64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category_id, SUM(ABS(amount))
		FROM transactions
		WHERE user_id = ? AND direction = 'expense' AND category_id IS NOT NULL
		  AND date >= ? AND date < ?
		GROUP BY category_id
	`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expense sums: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sums := make(map[int64]float64)
	for rows.Next() {
		var categoryID int64
		var total float64
		if err := rows.Scan(&categoryID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan expense sum: %w", err)
		}
		sums[categoryID] = total
	}
	return sums, rows.Err()
}
