package model

import "time"

// RuleSource indicates how a category rule was created.
type RuleSource string

const (
	// RuleSourceLearned indicates the rule was derived from a manual categorization.
	RuleSourceLearned RuleSource = "learned"
	// RuleSourceManual indicates the rule was created explicitly by the user.
	RuleSourceManual RuleSource = "manual"
)

// CategoryRule maps a keyword to a category for one user. Keywords are
// stored lower-case and matched as substrings of the normalized transaction
// description. Rules are never expired automatically; users delete them.
type CategoryRule struct {
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Keyword    string     `json:"keyword"`
	UserID     string     `json:"-"`
	Source     RuleSource `json:"source"`
	ID         int64      `json:"id"`
	CategoryID int64      `json:"category_id"`
}
