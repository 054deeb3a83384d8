package model

import "time"

// CategorySpend is one category's expense total within a summary window.
// A nil CategoryID groups uncategorized spend.
type CategorySpend struct {
	CategoryName string  `json:"category_name"`
	CategoryID   *int64  `json:"category_id"`
	Total        float64 `json:"total"` // Absolute value
	Count        int     `json:"count"`
}

// MonthSpend is one month's expense total.
type MonthSpend struct {
	Month string  `json:"month"`
	Total float64 `json:"total"` // Absolute value
}

// RecurringMerchant is a normalized description seen repeatedly in the
// window, near-identical strings grouped together.
type RecurringMerchant struct {
	Description string  `json:"description"`
	Total       float64 `json:"total"`
	Count       int     `json:"count"`
}

// SpendingSummary describes a user's activity over a trailing window.
type SpendingSummary struct {
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	ByCategory  []CategorySpend     `json:"by_category"`
	ByMonth     []MonthSpend        `json:"by_month"`
	Recurring   []RecurringMerchant `json:"recurring"`
	TotalSpent  float64             `json:"total_spent"`
	TotalIncome float64             `json:"total_income"`
}
