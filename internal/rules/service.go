package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Service exposes the category-assignment and rule-management operations.
// Assignment and learning execute inside one storage transaction under the
// caller's per-user lock, so rapid edits never lose rule updates.
type Service struct {
	store   service.Storage
	learner *Learner
	locks   *common.KeyedMutex
	log     *slog.Logger
}

// NewService creates the rule service. The lock registry must be the same
// one used by the import reconciler.
func NewService(store service.Storage, learner *Learner, locks *common.KeyedMutex) *Service {
	return &Service{
		store:   store,
		learner: learner,
		locks:   locks,
		log:     slog.Default().With("component", "rules"),
	}
}

// AssignCategory sets or clears a transaction's category by explicit user
// action. A set category is marked confirmed and fed to the Learner within
// the same storage transaction; clearing (nil categoryID) drops the
// confirmation and learns nothing. No other transaction is modified.
func (s *Service) AssignCategory(ctx context.Context, userID, transactionID string, categoryID *int64) (*model.Transaction, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := tx.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	if categoryID == nil {
		if err := tx.UpdateTransactionCategory(ctx, userID, transactionID, nil, false); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit category clear: %w", err)
		}
		txn.CategoryID = nil
		txn.CategoryConfirmed = false
		return txn, nil
	}

	category, err := tx.GetCategoryByID(ctx, userID, *categoryID)
	if err != nil {
		return nil, err
	}
	if !category.AcceptsDirection(txn.Direction) {
		return nil, fmt.Errorf("%w: category %q takes %s transactions, not %s",
			common.ErrValidation, category.Name, categoryDirection(category), txn.Direction)
	}

	if err := tx.UpdateTransactionCategory(ctx, userID, transactionID, categoryID, true); err != nil {
		return nil, err
	}

	if _, err := s.learner.Learn(ctx, tx, userID, txn.Description, *categoryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit category assignment: %w", err)
	}

	s.log.Info("category assigned",
		"user", userID,
		"transaction", transactionID,
		"category_id", *categoryID)

	txn.CategoryID = categoryID
	txn.CategoryConfirmed = true
	return txn, nil
}

// ListRules returns the user's rules.
func (s *Service) ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	return s.store.GetRules(ctx, userID)
}

// CreateRule stores a manual keyword rule. The keyword is normalized the
// same way descriptions are, so it matches exactly what the Matcher sees.
func (s *Service) CreateRule(ctx context.Context, userID, keyword string, categoryID int64) (*model.CategoryRule, error) {
	normalized := Normalize(keyword)
	if len(normalized) < DefaultMinKeywordLength {
		return nil, fmt.Errorf("%w: keyword %q is shorter than %d characters",
			common.ErrValidation, strings.TrimSpace(keyword), DefaultMinKeywordLength)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.store.UpsertRule(ctx, userID, normalized, categoryID, model.RuleSourceManual)
}

// DeleteRule removes one rule. Rules never expire on their own; this is the
// only way one goes away.
func (s *Service) DeleteRule(ctx context.Context, userID string, id int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.store.DeleteRule(ctx, userID, id)
}

func categoryDirection(c *model.Category) model.Direction {
	if c.IsIncome {
		return model.DirectionIncome
	}
	return model.DirectionExpense
}
