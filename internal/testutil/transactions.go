package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// TxnSpec describes a transaction to seed. Amount sign determines the
// direction: negative is an expense.
type TxnSpec struct {
	Date        time.Time
	Description string
	Account     string
	CategoryID  *int64
	Amount      float64
	Confirmed   bool
}

// InsertTransaction stores a transaction built from the spec and returns it.
// The normalized description is a simple lower-cased form, which is all the
// aggregation queries under test care about.
func InsertTransaction(t *testing.T, store service.Storage, userID string, spec TxnSpec) *model.Transaction {
	t.Helper()

	normalized := strings.ToLower(strings.TrimSpace(spec.Description))
	txn := &model.Transaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Date:              spec.Date,
		Description:       spec.Description,
		NormalizedDesc:    normalized,
		Amount:            spec.Amount,
		Direction:         model.DirectionForAmount(spec.Amount),
		Account:           spec.Account,
		Fingerprint:       model.ComputeFingerprint(spec.Date, spec.Amount, normalized),
		CategoryID:        spec.CategoryID,
		CategoryConfirmed: spec.Confirmed,
	}
	if err := store.InsertTransaction(context.Background(), txn); err != nil {
		t.Fatalf("failed to seed transaction %q: %v", spec.Description, err)
	}
	return txn
}

// Int64Ptr returns a pointer to v, for optional category references.
func Int64Ptr(v int64) *int64 {
	return &v
}
