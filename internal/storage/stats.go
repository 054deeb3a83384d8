package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/service"
)

// CategorySpendStats aggregates expense counts, totals and means per
// category over [start, end). Uncategorized expenses are excluded.
func (s *SQLiteStorage) CategorySpendStats(ctx context.Context, userID string, start, end time.Time) ([]service.CategorySpendStat, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.categorySpendStatsTx(ctx, s.db, userID, start, end)
}

func (s *SQLiteStorage) categorySpendStatsTx(ctx context.Context, q queryable, userID string, start, end time.Time) ([]service.CategorySpendStat, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category_id, COUNT(*), SUM(ABS(amount)), AVG(ABS(amount))
		FROM transactions
		WHERE user_id = ? AND direction = 'expense' AND category_id IS NOT NULL
		  AND date >= ? AND date < ?
		GROUP BY category_id
		ORDER BY SUM(ABS(amount)) DESC
	`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query spend stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []service.CategorySpendStat
	for rows.Next() {
		var stat service.CategorySpendStat
		err := rows.Scan(&stat.CategoryID, &stat.Count, &stat.Total, &stat.Average)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spend stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// ActiveMonthsByCategory counts, per category, the distinct calendar months
// within [start, end) that contain at least one expense transaction.
func (s *SQLiteStorage) ActiveMonthsByCategory(ctx context.Context, userID string, start, end time.Time) (map[int64]int, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.activeMonthsByCategoryTx(ctx, s.db, userID, start, end)
}

func (s *SQLiteStorage) activeMonthsByCategoryTx(ctx context.Context, q queryable, userID string, start, end time.Time) (map[int64]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category_id, COUNT(DISTINCT strftime('%Y-%m', date))
		FROM transactions
		WHERE user_id = ? AND direction = 'expense' AND category_id IS NOT NULL
		  AND date >= ? AND date < ?
		GROUP BY category_id
	`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query active months: %w", err)
	}
	defer func() { _ = rows.Close() }()

	months := make(map[int64]int)
	for rows.Next() {
		var categoryID int64
		var count int
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan active months: %w", err)
		}
		months[categoryID] = count
	}
	return months, rows.Err()
}

// NetFlow totals income and expenses (both as positive numbers) over
// [start, end).
func (s *SQLiteStorage) NetFlow(ctx context.Context, userID string, start, end time.Time) (float64, float64, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return 0, 0, err
	}
	return s.netFlowTx(ctx, s.db, userID, start, end)
}

func (s *SQLiteStorage) netFlowTx(ctx context.Context, q queryable, userID string, start, end time.Time) (float64, float64, error) {
	var income, expenses float64
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'income' THEN ABS(amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'expense' THEN ABS(amount) ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
	`, userID, start.UTC(), end.UTC()).Scan(&income, &expenses)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query net flow: %w", err)
	}
	return income, expenses, nil
}
