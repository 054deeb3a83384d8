// Package storage provides the data persistence layer for solari.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/solari/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidAlert       = errors.New("invalid alert")
	ErrInvalidBatch       = errors.New("invalid import batch")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUserParam bundles the context and user id checks every user-scoped
// query performs.
func validateUserParam(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return validateString(userID, "userID")
}

// validateTransaction validates a transaction before insert.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.Fingerprint == "" {
		return fmt.Errorf("%w: missing fingerprint", ErrInvalidTransaction)
	}
	switch txn.Direction {
	case model.DirectionIncome, model.DirectionExpense:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidTransaction, txn.Direction)
	}
	return nil
}

// validateAlert validates an alert before insert.
func validateAlert(alert *model.Alert) error {
	if alert == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if alert.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAlert)
	}
	if alert.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidAlert)
	}
	switch alert.Type {
	case model.AlertTypeAnomaly, model.AlertTypeInsight, model.AlertTypeReminder, model.AlertTypeGoal:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, alert.Type)
	}
	if alert.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidAlert)
	}
	return nil
}

// validateImportBatch validates a batch record before insert.
func validateImportBatch(batch *model.ImportBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if batch.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBatch)
	}
	if batch.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidBatch)
	}
	if batch.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidBatch)
	}
	return nil
}
