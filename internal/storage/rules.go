package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// GetRules returns all of a user's category rules. Results are served from
// the in-process cache when possible; rule writes invalidate it.
func (s *SQLiteStorage) GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}

	if rules := s.cachedRules(userID); rules != nil {
		return rules, nil
	}

	rules, err := s.getRulesTx(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	s.storeRulesCache(userID, rules)
	return rules, nil
}

func (s *SQLiteStorage) getRulesTx(ctx context.Context, q queryable, userID string) ([]model.CategoryRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, keyword, category_id, source, created_at, updated_at
		FROM category_rules
		WHERE user_id = ?
		ORDER BY keyword
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []model.CategoryRule{}
	for rows.Next() {
		var rule model.CategoryRule
		var source string
		err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.Keyword,
			&rule.CategoryID,
			&source,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Source = model.RuleSource(source)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpsertRule creates a keyword rule or repoints an existing one at a new
// category, bumping its updated_at. Keywords are unique per user; the target
// category must exist for the same user.
func (s *SQLiteStorage) UpsertRule(ctx context.Context, userID, keyword string, categoryID int64, source model.RuleSource) (*model.CategoryRule, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}
	s.invalidateRulesCache(userID)
	return s.upsertRuleTx(ctx, s.db, userID, keyword, categoryID, source)
}

func (s *SQLiteStorage) upsertRuleTx(ctx context.Context, q queryable, userID, keyword string, categoryID int64, source model.RuleSource) (*model.CategoryRule, error) {
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

	now := time.Now().UTC()
	_, err = q.ExecContext(ctx, `
		INSERT INTO category_rules (user_id, keyword, category_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, keyword) DO UPDATE SET
			category_id = excluded.category_id,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, userID, keyword, categoryID, string(source), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rule: %w", err)
	}

	return s.getRuleByKeywordTx(ctx, q, userID, keyword)
}

func (s *SQLiteStorage) getRuleByKeywordTx(ctx context.Context, q queryable, userID, keyword string) (*model.CategoryRule, error) {
	var rule model.CategoryRule
	var source string

	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, keyword, category_id, source, created_at, updated_at
		FROM category_rules
		WHERE user_id = ? AND keyword = ?
	`, userID, keyword).Scan(
		&rule.ID,
		&rule.UserID,
		&rule.Keyword,
		&rule.CategoryID,
		&source,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %q: %w", keyword, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	rule.Source = model.RuleSource(source)
	return &rule, nil
}

// DeleteRule removes one rule by id.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, userID string, id int64) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	s.invalidateRulesCache(userID)
	return s.deleteRuleTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) deleteRuleTx(ctx context.Context, q queryable, userID string, id int64) error {
	result, err := q.ExecContext(ctx, `
		DELETE FROM category_rules WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}
