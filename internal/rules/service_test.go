package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/testutil"
)

func TestService_AssignCategory(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"

	t.Run("assign confirms and learns", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())
		cats := testutil.SeedCategories(t, store, user, "Food")

		txn := testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Description: "UBER EATS 123",
			Amount:      -23.40,
		})

		updated, err := svc.AssignCategory(ctx, user, txn.ID, testutil.Int64Ptr(cats["Food"]))
		require.NoError(t, err)
		require.NotNil(t, updated.CategoryID)
		require.Equal(t, cats["Food"], *updated.CategoryID)
		require.True(t, updated.CategoryConfirmed)

		stored, err := store.GetTransactionByID(ctx, user, txn.ID)
		require.NoError(t, err)
		require.True(t, stored.CategoryConfirmed)

		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Len(t, rules, 2)
	})

	t.Run("direction mismatch is rejected", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())
		salary := testutil.SeedCategory(t, store, user, "Salary", true)

		txn := testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Description: "UBER EATS 123",
			Amount:      -23.40,
		})

		_, err := svc.AssignCategory(ctx, user, txn.ID, testutil.Int64Ptr(salary.ID))
		require.ErrorIs(t, err, common.ErrValidation)

		// Nothing was learned and the transaction is untouched.
		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Empty(t, rules)

		stored, err := store.GetTransactionByID(ctx, user, txn.ID)
		require.NoError(t, err)
		require.Nil(t, stored.CategoryID)
		require.False(t, stored.CategoryConfirmed)
	})

	t.Run("clearing the category does not learn", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())
		cats := testutil.SeedCategories(t, store, user, "Food")

		txn := testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Description: "UBER EATS 123",
			Amount:      -23.40,
			CategoryID:  testutil.Int64Ptr(cats["Food"]),
			Confirmed:   true,
		})

		updated, err := svc.AssignCategory(ctx, user, txn.ID, nil)
		require.NoError(t, err)
		require.Nil(t, updated.CategoryID)
		require.False(t, updated.CategoryConfirmed)

		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Empty(t, rules)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())
		cats := testutil.SeedCategories(t, store, user, "Food")

		_, err := svc.AssignCategory(ctx, user, "missing", testutil.Int64Ptr(cats["Food"]))
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown category", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())

		txn := testutil.InsertTransaction(t, store, user, testutil.TxnSpec{
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Description: "UBER EATS 123",
			Amount:      -23.40,
		})

		_, err := svc.AssignCategory(ctx, user, txn.ID, testutil.Int64Ptr(999))
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other users' transactions are invisible", func(t *testing.T) {
		store := testutil.SetupDB(t)
		svc := NewService(store, NewLearner(), common.NewKeyedMutex())
		cats := testutil.SeedCategories(t, store, user, "Food")

		txn := testutil.InsertTransaction(t, store, "other-user", testutil.TxnSpec{
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Description: "UBER EATS 123",
			Amount:      -23.40,
		})

		_, err := svc.AssignCategory(ctx, user, txn.ID, testutil.Int64Ptr(cats["Food"]))
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestService_ManualRules(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"

	store := testutil.SetupDB(t)
	svc := NewService(store, NewLearner(), common.NewKeyedMutex())
	cats := testutil.SeedCategories(t, store, user, "Entertainment")

	t.Run("create normalizes the keyword", func(t *testing.T) {
		rule, err := svc.CreateRule(ctx, user, "  NETFLIX ", cats["Entertainment"])
		require.NoError(t, err)
		require.Equal(t, "netflix", rule.Keyword)
		require.Equal(t, "manual", string(rule.Source))
	})

	t.Run("too-short keyword is rejected", func(t *testing.T) {
		_, err := svc.CreateRule(ctx, user, "tv", cats["Entertainment"])
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("delete removes the rule", func(t *testing.T) {
		rule, err := svc.CreateRule(ctx, user, "spotify", cats["Entertainment"])
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRule(ctx, user, rule.ID))

		err = svc.DeleteRule(ctx, user, rule.ID)
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}
