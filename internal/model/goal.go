package model

import "time"

// Goal is a monthly savings target for one user. Progress is the month's
// net flow (income minus expenses) measured against the target amount.
type Goal struct {
	CreatedAt    time.Time `json:"created_at"`
	Name         string    `json:"name"`
	UserID       string    `json:"-"`
	ID           int64     `json:"id"`
	TargetAmount float64   `json:"target_amount"`
}
