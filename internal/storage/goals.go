package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// GetGoals returns all of a user's savings goals ordered by name.
func (s *SQLiteStorage) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getGoalsTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) getGoalsTx(ctx context.Context, q queryable, userID string) ([]model.Goal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, name, target_amount, created_at
		FROM goals
		WHERE user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpsertGoal creates a savings goal or updates the target of an existing one
// with the same name.
func (s *SQLiteStorage) UpsertGoal(ctx context.Context, userID, name string, targetAmount float64) (*model.Goal, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.upsertGoalTx(ctx, s.db, userID, name, targetAmount)
}

func (s *SQLiteStorage) upsertGoalTx(ctx context.Context, q queryable, userID, name string, targetAmount float64) (*model.Goal, error) {
	if targetAmount <= 0 {
		return nil, fmt.Errorf("%w: goal target must be positive, got %v", common.ErrValidation, targetAmount)
	}

	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO goals (user_id, name, target_amount, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			target_amount = excluded.target_amount
	`, userID, name, targetAmount, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert goal: %w", err)
	}

	var goal model.Goal
	err = q.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, created_at
		FROM goals
		WHERE user_id = ? AND name = ?
	`, userID, name).Scan(&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount, &goal.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read back goal: %w", err)
	}
	return &goal, nil
}

// DeleteGoal removes one goal by id.
func (s *SQLiteStorage) DeleteGoal(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	return s.deleteGoalTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteGoalTx(ctx context.Context, q queryable, userID string, id int64) error {
	result, err := q.ExecContext(ctx, `
		DELETE FROM goals WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal %d: %w", id, common.ErrNotFound)
	}
	return nil
}
