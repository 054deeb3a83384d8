package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// GetCategories returns all of a user's categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getCategoriesTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q queryable, userID string) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, name, color, is_income, parent_id, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}
	return categories, rows.Err()
}

// GetCategoryByID retrieves one category owned by the user.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, userID string, id int64) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getCategoryByIDTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getCategoryByIDTx(ctx context.Context, q queryable, userID string, id int64) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, is_income, parent_id, created_at
		FROM categories
		WHERE user_id = ? AND id = ?
	`, userID, id)

	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

// GetCategoryByName retrieves one category by its unique per-user name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getCategoryByNameTx(ctx, s.db, userID, name)
}

func (s *SQLiteStorage) getCategoryByNameTx(ctx context.Context, q queryable, userID, name string) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, is_income, parent_id, created_at
		FROM categories
		WHERE user_id = ? AND name = ?
	`, userID, name)

	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

// CreateCategory creates a new category for the user. The name must be
// unique per user; a declared parent must already exist for the same user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, userID string, params service.CategoryParams) (*model.Category, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(params.Name, "name"); err != nil {
		return nil, err
	}
	return s.createCategoryTx(ctx, s.db, userID, params)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, userID string, params service.CategoryParams) (*model.Category, error) {
	if params.ParentID != nil {
		var exists bool
		err := q.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM categories WHERE user_id = ? AND id = ?)
		`, userID, *params.ParentID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check parent category: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("parent category %d: %w", *params.ParentID, common.ErrNotFound)
		}
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, color, is_income, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, params.Name, params.Color, params.IsIncome, params.ParentID, now)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category %q: %w", params.Name, common.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category id: %w", err)
	}

	return &model.Category{
		ID:        id,
		UserID:    userID,
		Name:      params.Name,
		Color:     params.Color,
		IsIncome:  params.IsIncome,
		ParentID:  params.ParentID,
		CreatedAt: now,
	}, nil
}

// DeleteCategory removes a category. Foreign keys null out transaction
// references and cascade to the category's rules and budgets.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	s.invalidateRulesCache(userID)
	return s.deleteCategoryTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteCategoryTx(ctx context.Context, q queryable, userID string, id int64) error {
	result, err := q.ExecContext(ctx, `
		DELETE FROM categories WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var cat model.Category
	var parentID sql.NullInt64

	err := row.Scan(
		&cat.ID,
		&cat.UserID,
		&cat.Name,
		&cat.Color,
		&cat.IsIncome,
		&parentID,
		&cat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		cat.ParentID = &parentID.Int64
	}
	return &cat, nil
}
