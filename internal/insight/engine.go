package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// relatedTransactionCap bounds how many sibling transaction ids an anomaly
// alert carries for drill-down.
const relatedTransactionCap = 20

// BudgetComparer reports planned against actual spend for one month.
type BudgetComparer interface {
	Compare(ctx context.Context, userID string, month time.Time) ([]model.BudgetComparison, error)
}

// Config holds the thresholds steering alert generation.
type Config struct {
	WindowMonths       int
	AnomalyMinCount    int
	AnomalyTopAlerts   int
	RecurringMinMonths int
	RecurringMinCount  int
	MonthEndDays       int
	AnomalyMultiplier  float64
}

// DefaultConfig returns the default generation thresholds.
func DefaultConfig() Config {
	return Config{
		WindowMonths:       3,
		AnomalyMultiplier:  2.0,
		AnomalyMinCount:    3,
		AnomalyTopAlerts:   2,
		RecurringMinMonths: 2,
		RecurringMinCount:  2,
		MonthEndDays:       2,
	}
}

// Engine evaluates the alert rule families in a single on-demand pass.
// There is no background scheduler; callers decide when to generate.
type Engine struct {
	store   service.Storage
	budgets BudgetComparer
	now     func() time.Time
	log     *slog.Logger
	cfg     Config
}

// NewEngine creates an Engine with the default thresholds.
func NewEngine(store service.Storage, budgets BudgetComparer) *Engine {
	return NewEngineWithConfig(store, budgets, DefaultConfig())
}

// NewEngineWithConfig creates an Engine with custom thresholds.
func NewEngineWithConfig(store service.Storage, budgets BudgetComparer, cfg Config) *Engine {
	return &Engine{
		store:   store,
		budgets: budgets,
		cfg:     cfg,
		now:     time.Now,
		log:     slog.Default().With("component", "insight"),
	}
}

// Generate runs every rule family once and returns the alerts that were
// actually created. A candidate is dropped when any alert with the same
// de-duplication key, dismissed ones included, was already created this
// month; dismissing an alert therefore silences that condition for the rest
// of the month. Output order is anomalies by ratio, budget overruns by
// overage, then heuristic insights, reminders and goals.
func (e *Engine) Generate(ctx context.Context, userID string) ([]model.Alert, error) {
	now := e.now().UTC()
	monthStart := model.MonthStart(now)
	nextMonth := monthStart.AddDate(0, 1, 0)
	windowStart := monthStart.AddDate(0, -e.cfg.WindowMonths, 0)

	var candidates []model.Alert

	anomalies, err := e.anomalyAlerts(ctx, userID, windowStart, nextMonth)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, anomalies...)

	overruns, err := e.budgetAlerts(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, overruns...)

	summary, err := buildSummaryAt(ctx, e.store, userID, e.cfg.WindowMonths, e.cfg.RecurringMinCount, now)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, e.heuristicAlerts(userID, summary, monthStart)...)

	reminders, err := e.reminderAlerts(ctx, userID, windowStart, monthStart, now)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, reminders...)

	goals, err := e.goalAlerts(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, goals...)

	created := make([]model.Alert, 0, len(candidates))
	for _, alert := range candidates {
		exists, err := e.store.AlertExists(ctx, userID, alert.DedupeKey, monthStart)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if err := e.store.InsertAlert(ctx, &alert); err != nil {
			return nil, err
		}
		created = append(created, alert)
	}

	e.log.Info("alerts generated",
		"user", userID,
		"candidates", len(candidates),
		"created", len(created))
	return created, nil
}

// anomalyAlerts flags expense transactions far above their category's mean
// over the window. Categories need AnomalyMinCount transactions before they
// have a meaningful mean; the top AnomalyTopAlerts offenders by ratio become
// alerts.
func (e *Engine) anomalyAlerts(ctx context.Context, userID string, start, end time.Time) ([]model.Alert, error) {
	stats, err := e.store.CategorySpendStats(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	means := make(map[int64]service.CategorySpendStat)
	for _, stat := range stats {
		if stat.Count >= e.cfg.AnomalyMinCount && stat.Average > 0 {
			means[stat.CategoryID] = stat
		}
	}
	if len(means) == 0 {
		return nil, nil
	}

	expenses, err := e.store.GetExpensesByPeriod(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	names, err := e.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	siblings := make(map[int64][]string)
	type finding struct {
		txn   model.Transaction
		stat  service.CategorySpendStat
		ratio float64
	}
	var findings []finding
	for _, txn := range expenses {
		if txn.CategoryID == nil {
			continue
		}
		stat, tracked := means[*txn.CategoryID]
		if !tracked {
			continue
		}
		if len(siblings[*txn.CategoryID]) < relatedTransactionCap {
			siblings[*txn.CategoryID] = append(siblings[*txn.CategoryID], txn.ID)
		}
		amount := math.Abs(txn.Amount)
		if amount > stat.Average*e.cfg.AnomalyMultiplier {
			findings = append(findings, finding{txn: txn, stat: stat, ratio: amount / stat.Average})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].ratio != findings[j].ratio {
			return findings[i].ratio > findings[j].ratio
		}
		return findings[i].txn.ID < findings[j].txn.ID
	})
	if len(findings) > e.cfg.AnomalyTopAlerts {
		findings = findings[:e.cfg.AnomalyTopAlerts]
	}

	alerts := make([]model.Alert, 0, len(findings))
	for _, f := range findings {
		name := names[f.stat.CategoryID]
		related := model.AnomalyData{
			TransactionID:  f.txn.ID,
			TransactionIDs: siblings[f.stat.CategoryID],
			CategoryID:     f.stat.CategoryID,
			Amount:         f.txn.Amount,
			CategoryAvg:    f.stat.Average,
			Ratio:          f.ratio,
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeAnomaly, related,
			fmt.Sprintf("Unusual spend in %s", name),
			fmt.Sprintf("You spent %.2f on %q, %.1fx your %s average of %.2f.",
				math.Abs(f.txn.Amount), f.txn.Description, f.ratio, name, f.stat.Average),
			"⚠️"))
	}
	return alerts, nil
}

// budgetAlerts turns this month's exceeded budgets into insight alerts,
// largest overage first.
func (e *Engine) budgetAlerts(ctx context.Context, userID string, monthStart time.Time) ([]model.Alert, error) {
	comparisons, err := e.budgets.Compare(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	var overruns []model.BudgetComparison
	for _, c := range comparisons {
		if c.Spent > c.Budgeted {
			overruns = append(overruns, c)
		}
	}
	sort.SliceStable(overruns, func(i, j int) bool {
		oi, oj := overruns[i].Spent-overruns[i].Budgeted, overruns[j].Spent-overruns[j].Budgeted
		if oi != oj {
			return oi > oj
		}
		return overruns[i].CategoryID < overruns[j].CategoryID
	})

	month := model.MonthKey(monthStart)
	alerts := make([]model.Alert, 0, len(overruns))
	for _, c := range overruns {
		related := model.BudgetOverrunData{
			Month:      month,
			CategoryID: c.CategoryID,
			Budgeted:   c.Budgeted,
			Spent:      c.Spent,
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeInsight, related,
			fmt.Sprintf("Budget exceeded: %s", c.CategoryName),
			fmt.Sprintf("You have spent %.2f of your %.2f %s budget this month (%.0f%%).",
				c.Spent, c.Budgeted, c.CategoryName, c.Percentage),
			"⚠️"))
	}
	return alerts, nil
}

// heuristicAlerts derives the observation insights from a spending summary:
// the top category, the month-over-month change and the recurring total.
func (e *Engine) heuristicAlerts(userID string, summary *model.SpendingSummary, monthStart time.Time) []model.Alert {
	month := model.MonthKey(monthStart)
	var alerts []model.Alert

	if len(summary.ByCategory) > 0 {
		top := summary.ByCategory[0]
		related := model.TopCategoryData{
			Month: month,
			Total: top.Total,
			Count: top.Count,
		}
		if top.CategoryID != nil {
			related.CategoryID = *top.CategoryID
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeInsight, related,
			"Top spending category",
			fmt.Sprintf("Your biggest spend is %s: %.2f across %d transactions.",
				top.CategoryName, top.Total, top.Count),
			"💰"))
	}

	if len(summary.ByMonth) >= 2 {
		curr := summary.ByMonth[len(summary.ByMonth)-1]
		prev := summary.ByMonth[len(summary.ByMonth)-2]
		var pct float64
		if prev.Total > 0 {
			pct = (curr.Total - prev.Total) / prev.Total * 100
		}
		related := model.MonthComparisonData{
			Month:         curr.Month,
			PreviousMonth: prev.Month,
			ChangePct:     pct,
		}
		message := fmt.Sprintf("Nice! You have spent %.0f%% less than last month (%.2f vs %.2f).",
			math.Abs(pct), curr.Total, prev.Total)
		icon := "📉"
		if curr.Total > prev.Total {
			message = fmt.Sprintf("You have spent %.0f%% more than last month (%.2f vs %.2f).",
				pct, curr.Total, prev.Total)
			icon = "📈"
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeInsight, related,
			"Month over month", message, icon))
	}

	if len(summary.Recurring) > 0 {
		merchants := summary.Recurring
		if len(merchants) > 5 {
			merchants = merchants[:5]
		}
		var total float64
		descriptions := make([]string, 0, len(merchants))
		for _, m := range merchants {
			total += m.Total
			descriptions = append(descriptions, m.Description)
		}
		related := model.RecurringData{Descriptions: descriptions, Total: total}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeInsight, related,
			"Recurring spend",
			fmt.Sprintf("Your recurring charges add up to %.2f. Worth checking they are all still needed.", total),
			"🔄"))
	}

	return alerts
}

// reminderAlerts covers categories that went quiet and the end-of-month
// statement nudge.
func (e *Engine) reminderAlerts(ctx context.Context, userID string, windowStart, monthStart time.Time, now time.Time) ([]model.Alert, error) {
	activeMonths, err := e.store.ActiveMonthsByCategory(ctx, userID, windowStart, monthStart)
	if err != nil {
		return nil, err
	}
	currentSpend, err := e.store.SumExpensesByCategory(ctx, userID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	names, err := e.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	var quiet []int64
	for categoryID, months := range activeMonths {
		if months >= e.cfg.RecurringMinMonths && currentSpend[categoryID] == 0 {
			quiet = append(quiet, categoryID)
		}
	}
	sort.Slice(quiet, func(i, j int) bool { return quiet[i] < quiet[j] })

	month := model.MonthKey(monthStart)
	var alerts []model.Alert
	for _, categoryID := range quiet {
		related := model.MissingRecurringData{
			Month:        month,
			CategoryID:   categoryID,
			ActiveMonths: activeMonths[categoryID],
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeReminder, related,
			fmt.Sprintf("Expected %s charge missing", names[categoryID]),
			fmt.Sprintf("You had %s expenses in %d of the last %d months but none so far this month.",
				names[categoryID], activeMonths[categoryID], e.cfg.WindowMonths),
			"🔄"))
	}

	lastDay := monthStart.AddDate(0, 1, -1).Day()
	if now.Day() > lastDay-e.cfg.MonthEndDays {
		related := model.MonthEndData{Month: month}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeReminder, related,
			"Month end",
			"The month is almost over. Remember to import your bank statement.",
			"📅"))
	}

	return alerts, nil
}

// goalAlerts reports each goal's progress against the month's net flow.
func (e *Engine) goalAlerts(ctx context.Context, userID string, monthStart time.Time) ([]model.Alert, error) {
	goals, err := e.store.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}

	income, expenses, err := e.store.NetFlow(ctx, userID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	actual := income - expenses

	month := model.MonthKey(monthStart)
	alerts := make([]model.Alert, 0, len(goals))
	for _, goal := range goals {
		progress := actual / goal.TargetAmount * 100
		related := model.GoalProgressData{
			Month:       month,
			GoalID:      goal.ID,
			Target:      goal.TargetAmount,
			Actual:      actual,
			ProgressPct: progress,
		}
		alerts = append(alerts, e.newAlert(userID, model.AlertTypeGoal, related,
			fmt.Sprintf("Goal progress: %s", goal.Name),
			fmt.Sprintf("Net savings of %.2f toward your %.2f monthly target (%.0f%%).",
				actual, goal.TargetAmount, progress),
			"🎯"))
	}
	return alerts, nil
}

func (e *Engine) categoryNames(ctx context.Context, userID string) (map[int64]string, error) {
	categories, err := e.store.GetCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (e *Engine) newAlert(userID string, typ model.AlertType, related model.RelatedData, title, message, icon string) model.Alert {
	return model.Alert{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Icon:      icon,
		Related:   related,
		DedupeKey: model.AlertDedupeKey(related),
	}
}
