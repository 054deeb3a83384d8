package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// ---- Insert tests ----

func TestInsertAndGetTransaction(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	catID := seedCategory(t, store, "Dining", false)

	txn := testTxn(t, "txn-1", "2026-08-10", "Blue Bottle Coffee", -4.50)
	txn.Account = "checking"
	txn.CategoryID = &catID
	txn.CategoryConfirmed = true
	if err := store.InsertTransaction(ctx, txn); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	got, err := store.GetTransactionByID(ctx, testUser, "txn-1")
	if err != nil {
		t.Fatalf("GetTransactionByID: %v", err)
	}
	if got.Description != "Blue Bottle Coffee" {
		t.Errorf("description = %q, want %q", got.Description, "Blue Bottle Coffee")
	}
	if got.NormalizedDesc != "blue bottle coffee" {
		t.Errorf("normalized = %q, want %q", got.NormalizedDesc, "blue bottle coffee")
	}
	if !got.Date.Equal(day(t, "2026-08-10")) {
		t.Errorf("date = %v, want 2026-08-10", got.Date)
	}
	if got.Amount != -4.50 {
		t.Errorf("amount = %v, want -4.50", got.Amount)
	}
	if got.Direction != model.DirectionExpense {
		t.Errorf("direction = %q, want expense", got.Direction)
	}
	if got.Account != "checking" {
		t.Errorf("account = %q, want %q", got.Account, "checking")
	}
	if got.CategoryID == nil || *got.CategoryID != catID {
		t.Errorf("categoryID = %v, want %d", got.CategoryID, catID)
	}
	if !got.CategoryConfirmed {
		t.Error("expected category to be confirmed")
	}
	if got.ImportBatchID != "" {
		t.Errorf("importBatchID = %q, want empty", got.ImportBatchID)
	}
	if got.Fingerprint != txn.Fingerprint {
		t.Errorf("fingerprint = %q, want %q", got.Fingerprint, txn.Fingerprint)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestInsertTransactionDuplicateFingerprint(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertTransaction(ctx, testTxn(t, "txn-1", "2026-08-10", "Coffee", -4.50)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// Same date, amount and description produce the same fingerprint.
	err := store.InsertTransaction(ctx, testTxn(t, "txn-2", "2026-08-10", "Coffee", -4.50))
	if !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestFingerprintUniquePerUser(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertTransaction(ctx, testTxn(t, "txn-1", "2026-08-10", "Coffee", -4.50)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	other := testTxn(t, "txn-2", "2026-08-10", "Coffee", -4.50)
	other.UserID = "user-2"
	if err := store.InsertTransaction(ctx, other); err != nil {
		t.Fatalf("insert same fingerprint for another user: %v", err)
	}
}

func TestInsertTransactionValidation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertTransaction(ctx, nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("nil txn err = %v, want ErrNilParameter", err)
	}

	mutations := []struct {
		name   string
		mutate func(*model.Transaction)
	}{
		{"missing id", func(txn *model.Transaction) { txn.ID = "" }},
		{"missing user", func(txn *model.Transaction) { txn.UserID = "" }},
		{"missing date", func(txn *model.Transaction) { txn.Date = time.Time{} }},
		{"missing description", func(txn *model.Transaction) { txn.Description = "" }},
		{"missing fingerprint", func(txn *model.Transaction) { txn.Fingerprint = "" }},
		{"unknown direction", func(txn *model.Transaction) { txn.Direction = "sideways" }},
	}
	for _, m := range mutations {
		txn := testTxn(t, "txn-1", "2026-08-10", "Coffee", -4.50)
		m.mutate(txn)
		if err := store.InsertTransaction(ctx, txn); !errors.Is(err, ErrInvalidTransaction) {
			t.Errorf("%s: err = %v, want ErrInvalidTransaction", m.name, err)
		}
	}
}

// ---- Lookup tests ----

func TestGetTransactionByIDNotFound(t *testing.T) {
	store := testStore(t)
	if _, err := store.GetTransactionByID(context.Background(), testUser, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransactionsAreUserScoped(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	seedTxn(t, store, "txn-1", "2026-08-10", "Coffee", -4.50, nil)

	other := testTxn(t, "txn-2", "2026-08-11", "Tea", -3.00)
	other.UserID = "user-2"
	if err := store.InsertTransaction(ctx, other); err != nil {
		t.Fatalf("insert for other user: %v", err)
	}

	if _, err := store.GetTransactionByID(ctx, "user-2", "txn-1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("cross-user get err = %v, want ErrNotFound", err)
	}
	got, err := store.GetTransactions(ctx, testUser, service.TransactionFilter{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "txn-1" {
		t.Fatalf("rows = %d, want only txn-1", len(got))
	}
}

// ---- Listing tests ----

func TestGetTransactionsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	seedTxn(t, store, "txn-old", "2026-08-01", "Old", -10, nil)
	seedTxn(t, store, "txn-new", "2026-08-10", "New", -20, nil)

	// Same-day rows order by insertion time, newest first.
	early := testTxn(t, "txn-early", "2026-08-05", "Early", -30)
	early.CreatedAt = time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	if err := store.InsertTransaction(ctx, early); err != nil {
		t.Fatalf("insert early: %v", err)
	}
	late := testTxn(t, "txn-late", "2026-08-05", "Late", -40)
	late.CreatedAt = time.Date(2026, 8, 5, 11, 0, 0, 0, time.UTC)
	if err := store.InsertTransaction(ctx, late); err != nil {
		t.Fatalf("insert late: %v", err)
	}

	got, err := store.GetTransactions(ctx, testUser, service.TransactionFilter{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	want := []string{"txn-new", "txn-late", "txn-early", "txn-old"}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("row[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestGetTransactionsFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	catID := seedCategory(t, store, "Dining", false)

	seedTxn(t, store, "txn-1", "2026-08-01", "One", -10, nil)
	seedTxn(t, store, "txn-2", "2026-08-05", "Two", -20, &catID)
	seedTxn(t, store, "txn-3", "2026-08-10", "Three", -30, nil)

	// The date range is inclusive on both ends.
	start, end := day(t, "2026-08-05"), day(t, "2026-08-10")
	got, err := store.GetTransactions(ctx, testUser, service.TransactionFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("GetTransactions range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("range rows = %d, want 2", len(got))
	}
	if got[0].ID != "txn-3" || got[1].ID != "txn-2" {
		t.Errorf("range order = %s, %s; want txn-3, txn-2", got[0].ID, got[1].ID)
	}

	got, err = store.GetTransactions(ctx, testUser, service.TransactionFilter{CategoryID: &catID})
	if err != nil {
		t.Fatalf("GetTransactions category: %v", err)
	}
	if len(got) != 1 || got[0].ID != "txn-2" {
		t.Fatalf("category rows = %d, want only txn-2", len(got))
	}
}

func TestGetTransactionsLimitAndOffset(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	seedTxn(t, store, "txn-1", "2026-08-01", "One", -10, nil)
	seedTxn(t, store, "txn-2", "2026-08-05", "Two", -20, nil)
	seedTxn(t, store, "txn-3", "2026-08-10", "Three", -30, nil)

	got, err := store.GetTransactions(ctx, testUser, service.TransactionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("GetTransactions limit: %v", err)
	}
	if len(got) != 2 || got[0].ID != "txn-3" || got[1].ID != "txn-2" {
		t.Fatalf("limit rows = %d, want txn-3 then txn-2", len(got))
	}

	got, err = store.GetTransactions(ctx, testUser, service.TransactionFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("GetTransactions offset: %v", err)
	}
	if len(got) != 1 || got[0].ID != "txn-1" {
		t.Fatalf("offset rows = %d, want only txn-1", len(got))
	}
}

func TestGetExpensesByPeriodWindow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	seedTxn(t, store, "txn-before", "2026-07-31", "Before", -10, nil)
	seedTxn(t, store, "txn-start", "2026-08-01", "Start", -20, nil)
	seedTxn(t, store, "txn-income", "2026-08-05", "Paycheck", 1500, nil)
	seedTxn(t, store, "txn-mid", "2026-08-15", "Mid", -30, nil)
	seedTxn(t, store, "txn-end", "2026-09-01", "End", -40, nil)

	got, err := store.GetExpensesByPeriod(ctx, testUser, day(t, "2026-08-01"), day(t, "2026-09-01"))
	if err != nil {
		t.Fatalf("GetExpensesByPeriod: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	// Start is included, end is excluded, income never appears. Oldest first.
	if got[0].ID != "txn-start" || got[1].ID != "txn-mid" {
		t.Errorf("order = %s, %s; want txn-start, txn-mid", got[0].ID, got[1].ID)
	}
}

func TestFingerprintExists(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	txn := testTxn(t, "txn-1", "2026-08-10", "Coffee", -4.50)
	if err := store.InsertTransaction(ctx, txn); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	exists, err := store.FingerprintExists(ctx, testUser, txn.Fingerprint)
	if err != nil {
		t.Fatalf("FingerprintExists: %v", err)
	}
	if !exists {
		t.Error("expected fingerprint to exist")
	}

	exists, err = store.FingerprintExists(ctx, testUser, "unknown")
	if err != nil {
		t.Fatalf("FingerprintExists miss: %v", err)
	}
	if exists {
		t.Error("expected unknown fingerprint to be absent")
	}
}

// ---- Category update tests ----

func TestUpdateTransactionCategory(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	catID := seedCategory(t, store, "Dining", false)
	seedTxn(t, store, "txn-1", "2026-08-10", "Coffee", -4.50, nil)

	if err := store.UpdateTransactionCategory(ctx, testUser, "txn-1", &catID, true); err != nil {
		t.Fatalf("UpdateTransactionCategory: %v", err)
	}
	got, err := store.GetTransactionByID(ctx, testUser, "txn-1")
	if err != nil {
		t.Fatalf("GetTransactionByID: %v", err)
	}
	if got.CategoryID == nil || *got.CategoryID != catID {
		t.Errorf("categoryID = %v, want %d", got.CategoryID, catID)
	}
	if !got.CategoryConfirmed {
		t.Error("expected confirmed flag to be set")
	}

	// Clearing passes a nil category and drops the confirmation.
	if err := store.UpdateTransactionCategory(ctx, testUser, "txn-1", nil, false); err != nil {
		t.Fatalf("clear category: %v", err)
	}
	got, err = store.GetTransactionByID(ctx, testUser, "txn-1")
	if err != nil {
		t.Fatalf("GetTransactionByID after clear: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("categoryID = %v, want nil", got.CategoryID)
	}
	if got.CategoryConfirmed {
		t.Error("expected confirmed flag to be cleared")
	}
}

func TestUpdateTransactionCategoryNotFound(t *testing.T) {
	store := testStore(t)
	err := store.UpdateTransactionCategory(context.Background(), testUser, "missing", nil, false)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
