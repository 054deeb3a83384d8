package insight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/testutil"
)

func TestBuildSummary_WindowAndTotals(t *testing.T) {
	store := testutil.SetupDB(t)
	ctx := context.Background()
	const userID = "user-1"
	income := testutil.SeedCategory(t, store, userID, "Salary", true)
	cats := testutil.SeedCategories(t, store, userID, "Food")
	food := testutil.Int64Ptr(cats["Food"])

	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Description: "payroll", Amount: 1000, CategoryID: testutil.Int64Ptr(income.ID),
	})
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), Description: "groceries", Amount: -100, CategoryID: food,
	})
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), Description: "lunch out", Amount: -50, CategoryID: food,
	})
	// Before the window.
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), Description: "old spend", Amount: -999, CategoryID: food,
	})

	summary, err := buildSummaryAt(ctx, store, userID, 3, 2, fixedNow)
	require.NoError(t, err)

	require.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), summary.From)
	require.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), summary.To)
	require.Equal(t, 150.0, summary.TotalSpent)
	require.Equal(t, 1000.0, summary.TotalIncome)
	require.Equal(t, []model.MonthSpend{
		{Month: "2026-07", Total: 50},
		{Month: "2026-08", Total: 100},
	}, summary.ByMonth)
}

func TestBuildSummary_ClampsWindow(t *testing.T) {
	store := testutil.SetupDB(t)

	summary, err := buildSummaryAt(context.Background(), store, "user-1", 0, 2, fixedNow)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), summary.From)
}

func TestBuildSummary_CategoryBuckets(t *testing.T) {
	store := testutil.SetupDB(t)
	ctx := context.Background()
	const userID = "user-1"
	cats := testutil.SeedCategories(t, store, userID, "Food", "Transport")

	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), Description: "groceries", Amount: -80, CategoryID: testutil.Int64Ptr(cats["Food"]),
	})
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC), Description: "train ticket", Amount: -120, CategoryID: testutil.Int64Ptr(cats["Transport"]),
	})
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), Description: "mystery charge", Amount: -30,
	})

	summary, err := buildSummaryAt(ctx, store, userID, 3, 2, fixedNow)
	require.NoError(t, err)

	require.Len(t, summary.ByCategory, 3)
	require.Equal(t, "Transport", summary.ByCategory[0].CategoryName)
	require.Equal(t, 120.0, summary.ByCategory[0].Total)
	require.Equal(t, "Food", summary.ByCategory[1].CategoryName)
	require.Equal(t, "Uncategorized", summary.ByCategory[2].CategoryName)
	require.Nil(t, summary.ByCategory[2].CategoryID)
	require.Equal(t, 30.0, summary.ByCategory[2].Total)
}

func TestBuildSummary_RecurringMerchants(t *testing.T) {
	store := testutil.SetupDB(t)
	ctx := context.Background()
	const userID = "user-1"

	// Near-identical spellings count as one merchant; the most frequent
	// spelling names the group.
	dates := []time.Time{
		time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, date := range dates {
		testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
			Date: date, Description: "NETFLIX 123", Amount: -12.99,
		})
	}
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), Description: "NETFLIX 124", Amount: -12.99,
	})
	// One-off purchases never count as recurring.
	testutil.InsertTransaction(t, store, userID, testutil.TxnSpec{
		Date: time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC), Description: "hardware store", Amount: -45,
	})

	summary, err := buildSummaryAt(ctx, store, userID, 3, 2, fixedNow)
	require.NoError(t, err)

	require.Len(t, summary.Recurring, 1)
	merchant := summary.Recurring[0]
	require.Equal(t, "netflix 123", merchant.Description)
	require.Equal(t, 3, merchant.Count)
	require.InDelta(t, 38.97, merchant.Total, 0.001)
}
