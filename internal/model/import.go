package model

import "time"

// RawRow is one statement row as supplied by an importer boundary. All
// fields are raw strings; the reconciler owns parsing and validation.
type RawRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Account     string `json:"account,omitempty"`
}

// RowError records why a single row was rejected during import.
type RowError struct {
	Reason string `json:"reason"`
	Index  int    `json:"index"`
}

// ImportResult summarizes one reconciled batch. Duplicates and skipped rows
// are reported, never silently dropped.
type ImportResult struct {
	BatchID    string     `json:"batch_id"`
	Rejected   []RowError `json:"rejected,omitempty"`
	Created    int        `json:"created"`
	Duplicates int        `json:"duplicates"`
	Skipped    int        `json:"skipped"`
}

// BatchStatus tracks the lifecycle of an import batch.
type BatchStatus string

const (
	// BatchStatusPending marks a batch whose rows are still being processed.
	BatchStatusPending BatchStatus = "pending"
	// BatchStatusProcessed marks a batch that completed row processing.
	BatchStatusProcessed BatchStatus = "processed"
	// BatchStatusError marks a batch that failed wholesale.
	BatchStatusError BatchStatus = "error"
)

// ImportBatch is the audit record written around each reconciled import.
type ImportBatch struct {
	CreatedAt  time.Time   `json:"created_at"`
	ID         string      `json:"id"`
	UserID     string      `json:"-"`
	Source     string      `json:"source"`
	FileName   string      `json:"file_name,omitempty"`
	Status     BatchStatus `json:"status"`
	Created    int         `json:"created"`
	Duplicates int         `json:"duplicates"`
	Skipped    int         `json:"skipped"`
}
