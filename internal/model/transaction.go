package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Direction indicates whether a transaction moves money in or out.
type Direction string

const (
	// DirectionIncome represents money coming in.
	DirectionIncome Direction = "income"
	// DirectionExpense represents money going out.
	DirectionExpense Direction = "expense"
)

// DirectionForAmount derives the direction from a signed amount.
// Negative amounts are money out.
func DirectionForAmount(amount float64) Direction {
	if amount < 0 {
		return DirectionExpense
	}
	return DirectionIncome
}

// Transaction represents a single imported financial event.
type Transaction struct {
	Date              time.Time `json:"date"`
	CreatedAt         time.Time `json:"created_at"`
	ID                string    `json:"id"`
	UserID            string    `json:"-"`
	Description       string    `json:"description"` // Raw description as imported
	NormalizedDesc    string    `json:"normalized_description"`
	Account           string    `json:"account,omitempty"`
	Fingerprint       string    `json:"-"`
	ImportBatchID     string    `json:"import_batch_id,omitempty"`
	Direction         Direction `json:"direction"`
	Amount            float64   `json:"amount"` // Signed; negative = money out
	CategoryID        *int64    `json:"category_id"`
	CategoryConfirmed bool      `json:"category_confirmed"`
}

// ComputeFingerprint creates the content fingerprint used for duplicate
// detection. Two rows with the same date, amount and normalized description
// are the same transaction.
func ComputeFingerprint(date time.Time, amount float64, normalizedDesc string) string {
	data := fmt.Sprintf("%s|%.2f|%s",
		date.Format("2006-01-02"),
		amount,
		normalizedDesc)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
