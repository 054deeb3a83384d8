package budget

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/testutil"
)

func TestTracker_Compare(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("orders by budget pressure", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food", "Transport")

		_, err := store.UpsertBudget(ctx, user, cats["Food"], month, 200)
		require.NoError(t, err)
		_, err = store.UpsertBudget(ctx, user, cats["Transport"], month, 100)
		require.NoError(t, err)

		testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date: month.AddDate(0, 0, 4), Description: "MERCADONA", Amount: -150,
			CategoryID: testutil.Int64Ptr(cats["Food"]),
		})
		testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date: month.AddDate(0, 0, 10), Description: "CARREFOUR", Amount: -100,
			CategoryID: testutil.Int64Ptr(cats["Food"]),
		})
		testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date: month.AddDate(0, 0, 2), Description: "METRO", Amount: -20,
			CategoryID: testutil.Int64Ptr(cats["Transport"]),
		})
		// Outside the month, must not count.
		testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date: month.AddDate(0, 1, 0), Description: "MERCADONA SEPT", Amount: -75,
			CategoryID: testutil.Int64Ptr(cats["Food"]),
		})

		comparisons, err := tracker.Compare(ctx, user, month)
		require.NoError(t, err)
		require.Len(t, comparisons, 2)

		food := comparisons[0]
		require.Equal(t, "Food", food.CategoryName)
		require.InDelta(t, 200.0, food.Budgeted, 0.001)
		require.InDelta(t, 250.0, food.Spent, 0.001)
		require.InDelta(t, -50.0, food.Difference, 0.001)
		require.InDelta(t, 125.0, food.Percentage, 0.001)

		transport := comparisons[1]
		require.Equal(t, "Transport", transport.CategoryName)
		require.InDelta(t, 80.0, transport.Difference, 0.001)
		require.InDelta(t, 20.0, transport.Percentage, 0.001)
	})

	t.Run("unbudgeted spend is excluded", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food", "Leisure")

		_, err := store.UpsertBudget(ctx, user, cats["Food"], month, 200)
		require.NoError(t, err)

		testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date: month.AddDate(0, 0, 7), Description: "CINEMA", Amount: -30,
			CategoryID: testutil.Int64Ptr(cats["Leisure"]),
		})

		comparisons, err := tracker.Compare(ctx, user, month)
		require.NoError(t, err)
		require.Len(t, comparisons, 1)
		require.Equal(t, cats["Food"], comparisons[0].CategoryID)
		require.InDelta(t, 0.0, comparisons[0].Spent, 0.001)
		require.InDelta(t, 0.0, comparisons[0].Percentage, 0.001)
	})

	t.Run("no budgets yields empty result", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)

		comparisons, err := tracker.Compare(ctx, user, month)
		require.NoError(t, err)
		require.Empty(t, comparisons)
	})
}

func TestTracker_Save(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("upserts and replaces", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food")

		saved, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 200},
		})
		require.NoError(t, err)
		require.Len(t, saved, 1)
		require.InDelta(t, 200.0, saved[0].Amount, 0.001)

		saved, err = tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 350},
		})
		require.NoError(t, err)
		require.Len(t, saved, 1)
		require.InDelta(t, 350.0, saved[0].Amount, 0.001)

		budgets, err := store.GetBudgets(ctx, user, month)
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		require.InDelta(t, 350.0, budgets[0].Amount, 0.001)
	})

	t.Run("zero amount deletes the row", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food")

		_, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 200},
		})
		require.NoError(t, err)

		saved, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 0},
		})
		require.NoError(t, err)
		require.Empty(t, saved)

		budgets, err := store.GetBudgets(ctx, user, month)
		require.NoError(t, err)
		require.Empty(t, budgets)

		// Deleting again is a quiet no-op.
		_, err = tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 0},
		})
		require.NoError(t, err)
	})

	t.Run("negative and NaN amounts are rejected upfront", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food")

		_, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 100},
			{CategoryID: cats["Food"], Amount: -1},
		})
		require.ErrorIs(t, err, common.ErrValidation)

		_, err = tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: math.NaN()},
		})
		require.ErrorIs(t, err, common.ErrValidation)

		budgets, err := store.GetBudgets(ctx, user, month)
		require.NoError(t, err)
		require.Empty(t, budgets)
	})

	t.Run("unknown category rolls the batch back", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		cats := testutil.SeedCategories(t, store, user, "Food")

		_, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: cats["Food"], Amount: 200},
			{CategoryID: 9999, Amount: 50},
		})
		require.ErrorIs(t, err, common.ErrNotFound)

		budgets, err := store.GetBudgets(ctx, user, month)
		require.NoError(t, err)
		require.Empty(t, budgets)
	})

	t.Run("foreign category is invisible", func(t *testing.T) {
		store := testutil.SetupDB(t)
		tracker := NewTracker(store)
		other := testutil.SeedCategories(t, store, "user-2", "Food")

		_, err := tracker.Save(ctx, user, month, []model.BudgetItem{
			{CategoryID: other["Food"], Amount: 200},
		})
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}
