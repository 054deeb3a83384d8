package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// testAlert builds a valid insight alert created at the given instant.
func testAlert(id string, createdAt time.Time) *model.Alert {
	return &model.Alert{
		ID:        id,
		UserID:    testUser,
		Type:      model.AlertTypeInsight,
		Title:     "Spending is up",
		Message:   "August spending is 40% above July.",
		CreatedAt: createdAt,
	}
}

// ---- Insert tests ----

func TestInsertAlertRoundTripsRelatedData(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	alert := testAlert("alert-1", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC))
	alert.Icon = "chart"
	alert.Related = model.BudgetOverrunData{Month: "2026-08", CategoryID: 7, Budgeted: 450, Spent: 512.25}
	if err := store.InsertAlert(ctx, alert); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	// The dedupe key is derived from the payload when left empty.
	if alert.DedupeKey != "budget_overrun:7" {
		t.Errorf("dedupeKey = %q, want %q", alert.DedupeKey, "budget_overrun:7")
	}

	got, err := store.GetAlertByID(ctx, testUser, "alert-1")
	if err != nil {
		t.Fatalf("GetAlertByID: %v", err)
	}
	if got.Type != model.AlertTypeInsight {
		t.Errorf("type = %q, want insight", got.Type)
	}
	if got.Title != "Spending is up" {
		t.Errorf("title = %q, want %q", got.Title, "Spending is up")
	}
	if got.Icon != "chart" {
		t.Errorf("icon = %q, want %q", got.Icon, "chart")
	}
	if got.IsRead || got.IsDismissed {
		t.Error("new alert should be unread and not dismissed")
	}

	related, ok := got.Related.(model.BudgetOverrunData)
	if !ok {
		t.Fatalf("related = %T, want BudgetOverrunData", got.Related)
	}
	if related.CategoryID != 7 || related.Budgeted != 450 || related.Spent != 512.25 {
		t.Errorf("related = %+v, want category 7 budgeted 450 spent 512.25", related)
	}
}

func TestInsertAlertWithoutRelatedData(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertAlert(ctx, testAlert("alert-1", time.Time{})); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	got, err := store.GetAlertByID(ctx, testUser, "alert-1")
	if err != nil {
		t.Fatalf("GetAlertByID: %v", err)
	}
	if got.Related != nil {
		t.Errorf("related = %+v, want nil", got.Related)
	}
	if got.DedupeKey != "" {
		t.Errorf("dedupeKey = %q, want empty", got.DedupeKey)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to default")
	}
}

func TestInsertAlertDuplicateID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertAlert(ctx, testAlert("alert-1", time.Time{})); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.InsertAlert(ctx, testAlert("alert-1", time.Time{})); !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestInsertAlertValidation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertAlert(ctx, nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("nil alert err = %v, want ErrNilParameter", err)
	}

	mutations := []struct {
		name   string
		mutate func(*model.Alert)
	}{
		{"missing id", func(a *model.Alert) { a.ID = "" }},
		{"missing user", func(a *model.Alert) { a.UserID = "" }},
		{"missing title", func(a *model.Alert) { a.Title = "" }},
		{"unknown type", func(a *model.Alert) { a.Type = "gossip" }},
	}
	for _, m := range mutations {
		alert := testAlert("alert-1", time.Time{})
		m.mutate(alert)
		if err := store.InsertAlert(ctx, alert); !errors.Is(err, ErrInvalidAlert) {
			t.Errorf("%s: err = %v, want ErrInvalidAlert", m.name, err)
		}
	}
}

// ---- Listing tests ----

func TestGetAlertsFiltersDismissed(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	seed := []struct {
		id   string
		hour int
	}{
		{"alert-1", 10},
		{"alert-2", 11},
		{"alert-3", 12},
	}
	for _, a := range seed {
		alert := testAlert(a.id, time.Date(2026, 8, 10, a.hour, 0, 0, 0, time.UTC))
		if err := store.InsertAlert(ctx, alert); err != nil {
			t.Fatalf("InsertAlert %s: %v", a.id, err)
		}
	}
	if err := store.DismissAlert(ctx, testUser, "alert-2"); err != nil {
		t.Fatalf("DismissAlert: %v", err)
	}

	// Dismissed alerts drop out of the default listing, newest first.
	alerts, err := store.GetAlerts(ctx, testUser, false, 0)
	if err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	if alerts[0].ID != "alert-3" || alerts[1].ID != "alert-1" {
		t.Errorf("order = %s, %s; want alert-3, alert-1", alerts[0].ID, alerts[1].ID)
	}

	all, err := store.GetAlerts(ctx, testUser, true, 0)
	if err != nil {
		t.Fatalf("GetAlerts includeDismissed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all alerts = %d, want 3", len(all))
	}

	limited, err := store.GetAlerts(ctx, testUser, true, 2)
	if err != nil {
		t.Fatalf("GetAlerts limit: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "alert-3" {
		t.Fatalf("limited alerts = %d, want 2 newest", len(limited))
	}
}

func TestGetAlertByIDNotFound(t *testing.T) {
	store := testStore(t)
	if _, err := store.GetAlertByID(context.Background(), testUser, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ---- State transition tests ----

func TestMarkAlertReadAndDismiss(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.InsertAlert(ctx, testAlert("alert-1", time.Time{})); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}
	if err := store.InsertAlert(ctx, testAlert("alert-2", time.Time{})); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	count, err := store.UnreadAlertCount(ctx, testUser)
	if err != nil {
		t.Fatalf("UnreadAlertCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := store.MarkAlertRead(ctx, testUser, "alert-1"); err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}
	count, err = store.UnreadAlertCount(ctx, testUser)
	if err != nil {
		t.Fatalf("UnreadAlertCount after read: %v", err)
	}
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}

	// Dismissing removes the remaining alert from the unread count too.
	if err := store.DismissAlert(ctx, testUser, "alert-2"); err != nil {
		t.Fatalf("DismissAlert: %v", err)
	}
	count, err = store.UnreadAlertCount(ctx, testUser)
	if err != nil {
		t.Fatalf("UnreadAlertCount after dismiss: %v", err)
	}
	if count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}

	got, err := store.GetAlertByID(ctx, testUser, "alert-1")
	if err != nil {
		t.Fatalf("GetAlertByID: %v", err)
	}
	if !got.IsRead {
		t.Error("expected alert-1 to be read")
	}
}

func TestAlertStateChangesNotFound(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.MarkAlertRead(ctx, testUser, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("MarkAlertRead err = %v, want ErrNotFound", err)
	}
	if err := store.DismissAlert(ctx, testUser, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DismissAlert err = %v, want ErrNotFound", err)
	}
}

// ---- De-duplication tests ----

func TestAlertExistsWindow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	alert := testAlert("alert-1", time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC))
	alert.Related = model.BudgetOverrunData{Month: "2026-08", CategoryID: 7, Budgeted: 450, Spent: 512}
	if err := store.InsertAlert(ctx, alert); err != nil {
		t.Fatalf("InsertAlert: %v", err)
	}

	exists, err := store.AlertExists(ctx, testUser, "budget_overrun:7", day(t, "2026-08-01"))
	if err != nil {
		t.Fatalf("AlertExists: %v", err)
	}
	if !exists {
		t.Error("expected alert within window to exist")
	}

	exists, err = store.AlertExists(ctx, testUser, "budget_overrun:7", day(t, "2026-08-15"))
	if err != nil {
		t.Fatalf("AlertExists later window: %v", err)
	}
	if exists {
		t.Error("expected no alert created after the cutoff")
	}

	// Dismissed alerts still count, so the condition is not re-raised.
	if err := store.DismissAlert(ctx, testUser, "alert-1"); err != nil {
		t.Fatalf("DismissAlert: %v", err)
	}
	exists, err = store.AlertExists(ctx, testUser, "budget_overrun:7", day(t, "2026-08-01"))
	if err != nil {
		t.Fatalf("AlertExists after dismiss: %v", err)
	}
	if !exists {
		t.Error("expected dismissed alert to still suppress the condition")
	}
}
