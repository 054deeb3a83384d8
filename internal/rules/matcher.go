package rules

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Matcher selects the best category rule for a transaction description.
type Matcher struct {
	store service.Storage
	log   *slog.Logger
}

// NewMatcher creates a Matcher backed by the given storage.
func NewMatcher(store service.Storage) *Matcher {
	return &Matcher{
		store: store,
		log:   slog.Default().With("component", "matcher"),
	}
}

// Match returns the rule whose keyword best matches the description, or
// found=false when no rule applies. Among matching rules the longest keyword
// wins; remaining ties go to the most recently updated rule, then to the
// lexicographically smallest keyword. The result is deterministic for a
// fixed rule set and input.
func (m *Matcher) Match(ctx context.Context, userID, description string) (*model.CategoryRule, bool, error) {
	normalized := Normalize(description)
	if normalized == "" {
		return nil, false, nil
	}

	rules, err := m.store.GetRules(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	var matches []model.CategoryRule
	for _, rule := range rules {
		if rule.Keyword != "" && strings.Contains(normalized, rule.Keyword) {
			matches = append(matches, rule)
		}
	}
	if len(matches) == 0 {
		return nil, false, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if len(a.Keyword) != len(b.Keyword) {
			return len(a.Keyword) > len(b.Keyword)
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.Keyword < b.Keyword
	})

	best := matches[0]
	m.log.Debug("matched rule",
		"user", userID,
		"keyword", best.Keyword,
		"category_id", best.CategoryID,
		"candidates", len(matches))
	return &best, true, nil
}
