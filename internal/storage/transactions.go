package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// isUniqueViolation reports whether the error is a SQLite unique-constraint
// failure. The driver exposes no typed error for this, so we match the text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertTransaction persists a new transaction. A fingerprint collision for
// the same user surfaces as common.ErrDuplicate.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.insertTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) insertTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	var batchID any
	if txn.ImportBatchID != "" {
		batchID = txn.ImportBatchID
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, date, description, normalized_description,
			amount, direction, account, fingerprint, category_id,
			category_confirmed, import_batch_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.UserID,
		txn.Date.UTC(),
		txn.Description,
		txn.NormalizedDesc,
		txn.Amount,
		string(txn.Direction),
		txn.Account,
		txn.Fingerprint,
		txn.CategoryID,
		txn.CategoryConfirmed,
		batchID,
		txn.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// GetTransactionByID retrieves a single transaction owned by the user.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionByIDTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getTransactionByIDTx(ctx context.Context, q queryable, userID, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, date, description, normalized_description,
		       amount, direction, account, fingerprint, category_id,
		       category_confirmed, import_batch_id, created_at
		FROM transactions
		WHERE user_id = ? AND id = ?
	`, userID, id)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions lists a user's transactions newest first, optionally
// filtered by date range and category.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, userID, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := `
		SELECT id, user_id, date, description, normalized_description,
		       amount, direction, account, fingerprint, category_id,
		       category_confirmed, import_batch_id, created_at
		FROM transactions
		WHERE user_id = ?`
	args := []any{userID}

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.UTC())
	}
	if filter.CategoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *filter.CategoryID)
	}

	query += " ORDER BY date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetExpensesByPeriod returns every expense transaction in [start, end),
// oldest first.
func (s *SQLiteStorage) GetExpensesByPeriod(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getExpensesByPeriodTx(ctx, s.db, userID, start, end)
}

func (s *SQLiteStorage) getExpensesByPeriodTx(ctx context.Context, q queryable, userID string, start, end time.Time) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, date, description, normalized_description,
		       amount, direction, account, fingerprint, category_id,
		       category_confirmed, import_batch_id, created_at
		FROM transactions
		WHERE user_id = ? AND direction = 'expense' AND date >= ? AND date < ?
		ORDER BY date ASC, created_at ASC
	`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// FingerprintExists reports whether a transaction with the given content
// fingerprint already exists for the user.
func (s *SQLiteStorage) FingerprintExists(ctx context.Context, userID, fingerprint string) (bool, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return false, err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return false, err
	}
	return s.fingerprintExistsTx(ctx, s.db, userID, fingerprint)
}

func (s *SQLiteStorage) fingerprintExistsTx(ctx context.Context, q queryable, userID, fingerprint string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id = ? AND fingerprint = ?)
	`, userID, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return exists, nil
}

// UpdateTransactionCategory sets or clears a transaction's category and its
// confirmation flag. The transaction must exist and belong to the user.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, userID, id string, categoryID *int64, confirmed bool) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.updateTransactionCategoryTx(ctx, s.db, userID, id, categoryID, confirmed)
}

func (s *SQLiteStorage) updateTransactionCategoryTx(ctx context.Context, q queryable, userID, id string, categoryID *int64, confirmed bool) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, category_confirmed = ?
		WHERE user_id = ? AND id = ?
	`, categoryID, confirmed, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var direction string
	var categoryID sql.NullInt64
	var batchID sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Date,
		&txn.Description,
		&txn.NormalizedDesc,
		&txn.Amount,
		&direction,
		&txn.Account,
		&txn.Fingerprint,
		&categoryID,
		&txn.CategoryConfirmed,
		&batchID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Direction = model.Direction(direction)
	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	if batchID.Valid {
		txn.ImportBatchID = batchID.String
	}
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}
