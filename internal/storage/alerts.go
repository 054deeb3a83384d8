package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// InsertAlert persists a newly generated alert.
func (s *SQLiteStorage) InsertAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}
	return s.insertAlertTx(ctx, s.db, alert)
}

func (s *SQLiteStorage) insertAlertTx(ctx context.Context, q queryable, alert *model.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if alert.DedupeKey == "" {
		alert.DedupeKey = model.AlertDedupeKey(alert.Related)
	}

	related, err := model.MarshalRelatedData(alert.Related)
	if err != nil {
		return fmt.Errorf("failed to encode related data: %w", err)
	}
	var relatedArg any
	if related != nil {
		relatedArg = string(related)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO alerts (
			id, user_id, type, title, message, icon,
			dedupe_key, related_data, is_read, is_dismissed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		alert.ID,
		alert.UserID,
		string(alert.Type),
		alert.Title,
		alert.Message,
		alert.Icon,
		alert.DedupeKey,
		relatedArg,
		alert.IsRead,
		alert.IsDismissed,
		alert.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("alert %s: %w", alert.ID, common.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// GetAlertByID retrieves one alert owned by the user.
func (s *SQLiteStorage) GetAlertByID(ctx context.Context, userID, id string) (*model.Alert, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getAlertByIDTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) getAlertByIDTx(ctx context.Context, q queryable, userID, id string) (*model.Alert, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, type, title, message, icon,
		       dedupe_key, related_data, is_read, is_dismissed, created_at
		FROM alerts
		WHERE user_id = ? AND id = ?
	`, userID, id)

	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// GetAlerts lists a user's alerts newest first. Dismissed alerts are
// excluded unless includeDismissed is set. A limit of 0 means no limit.
func (s *SQLiteStorage) GetAlerts(ctx context.Context, userID string, includeDismissed bool, limit int) ([]model.Alert, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return nil, err
	}
	return s.getAlertsTx(ctx, s.db, userID, includeDismissed, limit)
}

func (s *SQLiteStorage) getAlertsTx(ctx context.Context, q queryable, userID string, includeDismissed bool, limit int) ([]model.Alert, error) {
	query := `
		SELECT id, user_id, type, title, message, icon,
		       dedupe_key, related_data, is_read, is_dismissed, created_at
		FROM alerts
		WHERE user_id = ?`
	args := []any{userID}

	if !includeDismissed {
		query += " AND is_dismissed = 0"
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// MarkAlertRead flags one alert as read.
func (s *SQLiteStorage) MarkAlertRead(ctx context.Context, userID, id string) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.markAlertReadTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) markAlertReadTx(ctx context.Context, q queryable, userID, id string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1 WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DismissAlert removes an alert from default listings. The row is retained
// so re-generation will not resurrect the same condition.
func (s *SQLiteStorage) DismissAlert(ctx context.Context, userID, id string) error {
	if err := validateUserParam(ctx, userID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.dismissAlertTx(ctx, s.db, userID, id)
}

func (s *SQLiteStorage) dismissAlertTx(ctx context.Context, q queryable, userID, id string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE alerts SET is_dismissed = 1 WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to dismiss alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// UnreadAlertCount counts the user's non-dismissed unread alerts.
func (s *SQLiteStorage) UnreadAlertCount(ctx context.Context, userID string) (int, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return 0, err
	}
	return s.unreadAlertCountTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) unreadAlertCountTx(ctx context.Context, q queryable, userID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE user_id = ? AND is_read = 0 AND is_dismissed = 0
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}

// AlertExists reports whether any alert (read, unread or dismissed) with the
// given de-duplication key was created at or after since. Dismissed alerts
// count, which keeps dismissed conditions from being re-alerted.
func (s *SQLiteStorage) AlertExists(ctx context.Context, userID, dedupeKey string, since time.Time) (bool, error) {
	if err := validateUserParam(ctx, userID); err != nil {
		return false, err
	}
	if err := validateString(dedupeKey, "dedupeKey"); err != nil {
		return false, err
	}
	return s.alertExistsTx(ctx, s.db, userID, dedupeKey, since)
}

func (s *SQLiteStorage) alertExistsTx(ctx context.Context, q queryable, userID, dedupeKey string, since time.Time) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM alerts
			WHERE user_id = ? AND dedupe_key = ? AND created_at >= ?
		)
	`, userID, dedupeKey, since.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return exists, nil
}

func scanAlert(row rowScanner) (*model.Alert, error) {
	var alert model.Alert
	var alertType string
	var related sql.NullString

	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alertType,
		&alert.Title,
		&alert.Message,
		&alert.Icon,
		&alert.DedupeKey,
		&related,
		&alert.IsRead,
		&alert.IsDismissed,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Type = model.AlertType(alertType)
	if related.Valid && related.String != "" {
		data, err := model.UnmarshalRelatedData([]byte(related.String))
		if err != nil {
			return nil, fmt.Errorf("failed to decode related data: %w", err)
		}
		alert.Related = data
	}
	return &alert, nil
}
