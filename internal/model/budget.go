package model

import (
	"fmt"
	"time"
)

// Budget is a planned spend amount for one category in one month.
// A stored budget always has a positive amount; saving zero deletes the row.
type Budget struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Month      time.Time `json:"month"` // First of month, UTC
	UserID     string    `json:"-"`
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Amount     float64   `json:"amount"`
}

// BudgetItem is one entry of a bulk budget save.
type BudgetItem struct {
	CategoryID int64   `json:"category_id"`
	Amount     float64 `json:"amount"`
}

// BudgetComparison reports planned against actual spend for one category in
// one month. Difference is budgeted minus spent, so overspend is negative.
type BudgetComparison struct {
	CategoryName string  `json:"category_name"`
	CategoryID   int64   `json:"category_id"`
	Budgeted     float64 `json:"budgeted"`
	Spent        float64 `json:"spent"`
	Difference   float64 `json:"difference"`
	Percentage   float64 `json:"percentage"`
}

// MonthStart normalizes a time to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a YYYY-MM month key into its first-of-month date.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return MonthStart(t), nil
}

// MonthKey formats a month as its YYYY-MM key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
