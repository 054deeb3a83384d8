package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// CreateImportBatch opens the audit record for a reconciled import.
func (s *SQLiteStorage) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportBatch(batch); err != nil {
		return err
	}
	return s.createImportBatchTx(ctx, s.db, batch)
}

func (s *SQLiteStorage) createImportBatchTx(ctx context.Context, q queryable, batch *model.ImportBatch) error {
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	if batch.Status == "" {
		batch.Status = model.BatchStatusPending
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO import_batches (
			id, user_id, source, file_name, status,
			created_count, duplicate_count, skipped_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		batch.ID,
		batch.UserID,
		batch.Source,
		batch.FileName,
		string(batch.Status),
		batch.Created,
		batch.Duplicates,
		batch.Skipped,
		batch.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("import batch %s: %w", batch.ID, common.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// FinalizeImportBatch records the outcome of a reconciled import.
func (s *SQLiteStorage) FinalizeImportBatch(ctx context.Context, userID, id string, status model.BatchStatus, created, duplicates, skipped int) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.finalizeImportBatchTx(ctx, s.db, userID, id, status, created, duplicates, skipped)
}

func (s *SQLiteStorage) finalizeImportBatchTx(ctx context.Context, q queryable, userID, id string, status model.BatchStatus, created, duplicates, skipped int) error {
	result, err := q.ExecContext(ctx, `
		UPDATE import_batches
		SET status = ?, created_count = ?, duplicate_count = ?, skipped_count = ?
		WHERE user_id = ? AND id = ?
	`, string(status), created, duplicates, skipped, userID, id)
	if err != nil {
		return fmt.Errorf("failed to finalize import batch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import batch %s: %w", id, common.ErrNotFound)
	}
	return nil
}
