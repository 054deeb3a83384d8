package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/testutil"
)

func TestLearner_Learn(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"

	t.Run("creates rules from distinctive keywords", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Food")

		learned, err := NewLearner().Learn(ctx, store, user, "UBER EATS 123", cats["Food"])
		require.NoError(t, err)
		require.Len(t, learned, 2)
		require.Equal(t, "uber", learned[0].Keyword)
		require.Equal(t, "eats", learned[1].Keyword)
		for _, rule := range learned {
			require.Equal(t, cats["Food"], rule.CategoryID)
			require.Equal(t, model.RuleSourceLearned, rule.Source)
		}
	})

	t.Run("caps keywords per invocation", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Food")

		learned, err := NewLearner().Learn(ctx, store, user, "GREEN GARDEN ORGANIC GROCERS", cats["Food"])
		require.NoError(t, err)
		require.Len(t, learned, 2)

		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Len(t, rules, 2)
	})

	t.Run("filters noise words", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Coffee")

		learned, err := NewLearner().Learn(ctx, store, user, "PAYMENT VISA STARBUCKS", cats["Coffee"])
		require.NoError(t, err)
		require.Len(t, learned, 1)
		require.Equal(t, "starbucks", learned[0].Keyword)
	})

	t.Run("all-noise description is a silent no-op", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Misc")

		learned, err := NewLearner().Learn(ctx, store, user, "COMPRA TARJ. 1234XXXX5678", cats["Misc"])
		require.NoError(t, err)
		require.Empty(t, learned)

		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Empty(t, rules)
	})

	t.Run("re-categorization repoints the existing rule", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Food", "Transport")
		learner := NewLearner()

		first, err := learner.Learn(ctx, store, user, "UBER EATS", cats["Food"])
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := learner.Learn(ctx, store, user, "UBER EATS", cats["Transport"])
		require.NoError(t, err)
		require.Len(t, second, 2)
		for _, rule := range second {
			require.Equal(t, cats["Transport"], rule.CategoryID)
		}

		// Still two rules total: the upsert replaced, not duplicated.
		rules, err := store.GetRules(ctx, user)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		require.False(t, rules[0].UpdatedAt.Before(first[0].UpdatedAt))
	})

	t.Run("respects a raised minimum keyword length", func(t *testing.T) {
		store := testutil.SetupDB(t)
		cats := testutil.SeedCategories(t, store, user, "Food")

		learner := NewLearner()
		learner.MinKeywordLength = 5

		learned, err := learner.Learn(ctx, store, user, "UBER EATS", cats["Food"])
		require.NoError(t, err)
		require.Empty(t, learned)
	})
}
