package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/testutil"
)

func TestMatcher_Match(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"

	store := testutil.SetupDB(t)
	cats := testutil.SeedCategories(t, store, user, "Transport", "Food", "Entertainment")

	_, err := store.UpsertRule(ctx, user, "uber", cats["Transport"], model.RuleSourceLearned)
	require.NoError(t, err)
	_, err = store.UpsertRule(ctx, user, "uber eats", cats["Food"], model.RuleSourceLearned)
	require.NoError(t, err)
	_, err = store.UpsertRule(ctx, user, "netflix", cats["Entertainment"], model.RuleSourceManual)
	require.NoError(t, err)

	matcher := NewMatcher(store)

	tests := []struct {
		name         string
		description  string
		wantKeyword  string
		wantCategory int64
		wantFound    bool
	}{
		{
			name:         "simple substring match",
			description:  "NETFLIX.COM MONTHLY",
			wantKeyword:  "netflix",
			wantCategory: cats["Entertainment"],
			wantFound:    true,
		},
		{
			name:         "longest keyword wins",
			description:  "UBER EATS 789",
			wantKeyword:  "uber eats",
			wantCategory: cats["Food"],
			wantFound:    true,
		},
		{
			name:         "shorter rule still matches alone",
			description:  "UBER *TRIP HELSINKI",
			wantKeyword:  "uber",
			wantCategory: cats["Transport"],
			wantFound:    true,
		},
		{
			name:         "case insensitive",
			description:  "Netflix renewal",
			wantKeyword:  "netflix",
			wantCategory: cats["Entertainment"],
			wantFound:    true,
		},
		{
			name:         "reference noise stripped before matching",
			description:  "NETFLIX REF: 42001",
			wantKeyword:  "netflix",
			wantCategory: cats["Entertainment"],
			wantFound:    true,
		},
		{
			name:        "no rule matches",
			description: "LOCAL BAKERY",
			wantFound:   false,
		},
		{
			name:        "empty description",
			description: "   ",
			wantFound:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, found, err := matcher.Match(ctx, user, tt.description)
			require.NoError(t, err)
			require.Equal(t, tt.wantFound, found)
			if !tt.wantFound {
				require.Nil(t, rule)
				return
			}
			require.Equal(t, tt.wantKeyword, rule.Keyword)
			require.Equal(t, tt.wantCategory, rule.CategoryID)
		})
	}
}

func TestMatcher_EqualLengthTieGoesToMostRecent(t *testing.T) {
	ctx := context.Background()
	const user = "user-1"

	store := testutil.SetupDB(t)
	cats := testutil.SeedCategories(t, store, user, "Transport", "Food")

	_, err := store.UpsertRule(ctx, user, "uber", cats["Transport"], model.RuleSourceLearned)
	require.NoError(t, err)
	_, err = store.UpsertRule(ctx, user, "eats", cats["Food"], model.RuleSourceLearned)
	require.NoError(t, err)

	matcher := NewMatcher(store)

	// "eats" was written last, so it wins the equal-length tie.
	rule, found, err := matcher.Match(ctx, user, "UBER EATS 789")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "eats", rule.Keyword)

	// Re-pointing "uber" bumps its updated_at past "eats".
	_, err = store.UpsertRule(ctx, user, "uber", cats["Transport"], model.RuleSourceLearned)
	require.NoError(t, err)

	rule, found, err = matcher.Match(ctx, user, "UBER EATS 789")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "uber", rule.Keyword)
}

func TestMatcher_RulesAreScopedPerUser(t *testing.T) {
	ctx := context.Background()

	store := testutil.SetupDB(t)
	cats := testutil.SeedCategories(t, store, "owner", "Food")

	_, err := store.UpsertRule(ctx, "owner", "uber eats", cats["Food"], model.RuleSourceLearned)
	require.NoError(t, err)

	matcher := NewMatcher(store)

	_, found, err := matcher.Match(ctx, "someone-else", "UBER EATS 789")
	require.NoError(t, err)
	require.False(t, found)
}
