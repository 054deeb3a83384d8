package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// Learner defaults. Keywords shorter than the minimum would match far too
// many unrelated descriptions; two keywords per categorization keeps a
// single edit from flooding the rule table.
const (
	DefaultMinKeywordLength = 3
	DefaultMaxKeywords      = 2
)

// Learner derives keyword rules from manual categorizations so future
// imports are categorized automatically. Existing transactions are never
// touched.
type Learner struct {
	log              *slog.Logger
	MinKeywordLength int
	MaxKeywords      int
}

// NewLearner creates a Learner with default thresholds.
func NewLearner() *Learner {
	return &Learner{
		MinKeywordLength: DefaultMinKeywordLength,
		MaxKeywords:      DefaultMaxKeywords,
		log:              slog.Default().With("component", "learner"),
	}
}

// Learn upserts keyword rules mapping the description's most distinctive
// tokens to the assigned category. An existing rule for the same keyword is
// repointed at the new category (last write wins). When no keyword survives
// filtering the call is a silent no-op. The store is typically the storage
// transaction wrapping the category assignment itself.
func (l *Learner) Learn(ctx context.Context, store service.Storage, userID, description string, categoryID int64) ([]model.CategoryRule, error) {
	minLen := l.MinKeywordLength
	if minLen < DefaultMinKeywordLength {
		minLen = DefaultMinKeywordLength
	}
	maxKeywords := l.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	var keywords []string
	for _, keyword := range ExtractKeywords(description) {
		if len(keyword) < minLen {
			continue
		}
		keywords = append(keywords, keyword)
		if len(keywords) == maxKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		l.log.Debug("no keywords learned", "user", userID, "description", description)
		return nil, nil
	}

	var learned []model.CategoryRule
	for _, keyword := range keywords {
		rule, err := store.UpsertRule(ctx, userID, keyword, categoryID, model.RuleSourceLearned)
		if err != nil {
			return learned, fmt.Errorf("failed to learn rule %q: %w", keyword, err)
		}
		learned = append(learned, *rule)
	}

	l.log.Debug("learned rules",
		"user", userID,
		"category_id", categoryID,
		"keywords", keywords)
	return learned, nil
}
