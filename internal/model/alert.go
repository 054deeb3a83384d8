// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AlertType distinguishes the alert families produced by the insight engine.
type AlertType string

const (
	// AlertTypeAnomaly flags a transaction far above its category average.
	AlertTypeAnomaly AlertType = "anomaly"
	// AlertTypeInsight carries a spending observation or budget overrun.
	AlertTypeInsight AlertType = "insight"
	// AlertTypeReminder nudges the user about expected or pending activity.
	AlertTypeReminder AlertType = "reminder"
	// AlertTypeGoal reports progress toward a savings goal.
	AlertTypeGoal AlertType = "goal"
)

// RelatedData is the typed payload attached to an alert. Each implementation
// carries only the fields relevant to its kind and contributes the fields
// that identify the underlying condition for de-duplication.
type RelatedData interface {
	// Kind returns the discriminator stored in the JSON envelope.
	Kind() string
	// DedupeFields returns the values identifying the condition. Alerts of
	// the same kind with equal fields describe the same condition.
	DedupeFields() []string
}

// AnomalyData references a transaction that exceeded its category average.
type AnomalyData struct {
	TransactionID  string   `json:"transaction_id"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
	CategoryID     int64    `json:"category_id"`
	Amount         float64  `json:"amount"`
	CategoryAvg    float64  `json:"category_avg"`
	Ratio          float64  `json:"ratio"`
}

// Kind implements RelatedData.
func (d AnomalyData) Kind() string { return "anomaly" }

// DedupeFields implements RelatedData.
func (d AnomalyData) DedupeFields() []string { return []string{d.TransactionID} }

// BudgetOverrunData references a category whose spend exceeded its budget.
type BudgetOverrunData struct {
	Month      string  `json:"month"`
	CategoryID int64   `json:"category_id"`
	Budgeted   float64 `json:"budgeted"`
	Spent      float64 `json:"spent"`
}

// Kind implements RelatedData.
func (d BudgetOverrunData) Kind() string { return "budget_overrun" }

// DedupeFields implements RelatedData.
func (d BudgetOverrunData) DedupeFields() []string {
	return []string{strconv.FormatInt(d.CategoryID, 10)}
}

// TopCategoryData names the category with the largest spend in the window.
type TopCategoryData struct {
	Month          string   `json:"month"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
	CategoryID     int64    `json:"category_id"` // 0 when the top spend is uncategorized
	Total          float64  `json:"total"`
	Count          int      `json:"count"`
}

// Kind implements RelatedData.
func (d TopCategoryData) Kind() string { return "top_category" }

// DedupeFields implements RelatedData.
func (d TopCategoryData) DedupeFields() []string { return nil }

// MonthComparisonData compares the current month's spend to the previous.
type MonthComparisonData struct {
	Month         string  `json:"month"`
	PreviousMonth string  `json:"previous_month"`
	ChangePct     float64 `json:"change_pct"`
}

// Kind implements RelatedData.
func (d MonthComparisonData) Kind() string { return "month_comparison" }

// DedupeFields implements RelatedData.
func (d MonthComparisonData) DedupeFields() []string { return nil }

// RecurringData summarizes detected recurring merchants.
type RecurringData struct {
	Descriptions []string `json:"descriptions"`
	Total        float64  `json:"total"`
}

// Kind implements RelatedData.
func (d RecurringData) Kind() string { return "recurring" }

// DedupeFields implements RelatedData.
func (d RecurringData) DedupeFields() []string { return nil }

// MissingRecurringData flags a category with recurring history but no
// activity in the current month.
type MissingRecurringData struct {
	Month        string `json:"month"`
	CategoryID   int64  `json:"category_id"`
	ActiveMonths int    `json:"active_months"`
}

// Kind implements RelatedData.
func (d MissingRecurringData) Kind() string { return "missing_recurring" }

// DedupeFields implements RelatedData.
func (d MissingRecurringData) DedupeFields() []string {
	return []string{strconv.FormatInt(d.CategoryID, 10)}
}

// MonthEndData marks the end-of-month statement reminder.
type MonthEndData struct {
	Month string `json:"month"`
}

// Kind implements RelatedData.
func (d MonthEndData) Kind() string { return "month_end" }

// DedupeFields implements RelatedData.
func (d MonthEndData) DedupeFields() []string { return nil }

// GoalProgressData reports progress toward a savings goal for one month.
type GoalProgressData struct {
	Month       string  `json:"month"`
	GoalID      int64   `json:"goal_id"`
	Target      float64 `json:"target"`
	Actual      float64 `json:"actual"`
	ProgressPct float64 `json:"progress_pct"`
}

// Kind implements RelatedData.
func (d GoalProgressData) Kind() string { return "goal_progress" }

// DedupeFields implements RelatedData.
func (d GoalProgressData) DedupeFields() []string {
	return []string{strconv.FormatInt(d.GoalID, 10)}
}

// AlertDedupeKey derives the de-duplication key for an alert payload.
// Alerts with equal keys describe the same underlying condition; the
// evaluation period is scoped separately by creation time.
func AlertDedupeKey(related RelatedData) string {
	if related == nil {
		return ""
	}
	fields := related.DedupeFields()
	if len(fields) == 0 {
		return related.Kind()
	}
	return related.Kind() + ":" + strings.Join(fields, ":")
}

// Alert is a generated notification for one user. Dismissed alerts stay on
// record but drop out of default listings.
type Alert struct {
	CreatedAt   time.Time
	Related     RelatedData
	ID          string
	UserID      string
	Type        AlertType
	Title       string
	Message     string
	Icon        string
	DedupeKey   string
	IsRead      bool
	IsDismissed bool
}

// MarshalJSON renders the related payload inside its kind envelope so API
// consumers can route on the discriminator.
func (a Alert) MarshalJSON() ([]byte, error) {
	related, err := MarshalRelatedData(a.Related)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		CreatedAt   time.Time       `json:"created_at"`
		ID          string          `json:"id"`
		Type        AlertType       `json:"type"`
		Title       string          `json:"title"`
		Message     string          `json:"message"`
		Icon        string          `json:"icon,omitempty"`
		RelatedData json.RawMessage `json:"related_data,omitempty"`
		IsRead      bool            `json:"is_read"`
		IsDismissed bool            `json:"is_dismissed"`
	}{
		CreatedAt:   a.CreatedAt,
		ID:          a.ID,
		Type:        a.Type,
		Title:       a.Title,
		Message:     a.Message,
		Icon:        a.Icon,
		RelatedData: related,
		IsRead:      a.IsRead,
		IsDismissed: a.IsDismissed,
	})
}

type relatedEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalRelatedData encodes a payload with its kind discriminator.
// A nil payload encodes to nil.
func MarshalRelatedData(related RelatedData) ([]byte, error) {
	if related == nil {
		return nil, nil
	}
	data, err := json.Marshal(related)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", related.Kind(), err)
	}
	return json.Marshal(relatedEnvelope{Kind: related.Kind(), Data: data})
}

// UnmarshalRelatedData decodes an envelope produced by MarshalRelatedData
// back into its typed payload.
func UnmarshalRelatedData(raw []byte) (RelatedData, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env relatedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal related data envelope: %w", err)
	}

	var related RelatedData
	switch env.Kind {
	case "anomaly":
		var d AnomalyData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "budget_overrun":
		var d BudgetOverrunData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "top_category":
		var d TopCategoryData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "month_comparison":
		var d MonthComparisonData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "recurring":
		var d RecurringData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "missing_recurring":
		var d MissingRecurringData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "month_end":
		var d MonthEndData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	case "goal_progress":
		var d GoalProgressData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, err
		}
		related = d
	default:
		return nil, fmt.Errorf("unknown related data kind %q", env.Kind)
	}
	return related, nil
}
