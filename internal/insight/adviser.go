package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// overBudgetAdviceCap bounds how many exceeded categories the heuristic
// advice lists.
const overBudgetAdviceCap = 3

const adviceSystemPrompt = `You are a personal budgeting coach. Using only the figures provided, reply with: a one-line status of the month, the over-budget categories ordered by severity with one concrete reduction step each, and one realistic savings suggestion for next month. Never invent numbers that are not in the data. Keep the whole reply under 250 words.`

// TextGenerator produces free-form advice text. The llm package provides
// implementations; a nil generator means advice is composed locally.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Adviser turns a month's budget state and spending habits into a short
// piece of written advice.
type Adviser struct {
	store     service.Storage
	budgets   BudgetComparer
	generator TextGenerator
	cfg       Config
	log       *slog.Logger
}

// NewAdviser creates an Adviser. Pass a nil generator to always compose
// advice locally.
func NewAdviser(store service.Storage, budgets BudgetComparer, generator TextGenerator) *Adviser {
	return NewAdviserWithConfig(store, budgets, generator, DefaultConfig())
}

// NewAdviserWithConfig creates an Adviser with custom summary thresholds.
func NewAdviserWithConfig(store service.Storage, budgets BudgetComparer, generator TextGenerator, cfg Config) *Adviser {
	return &Adviser{
		store:     store,
		budgets:   budgets,
		generator: generator,
		cfg:       cfg,
		log:       slog.Default().With("component", "adviser"),
	}
}

// Advise builds the month's budget comparisons and the spending summary
// into advice. The summary window ends with the requested month, so advice
// about a past month reads the data as it stood then. With a generator
// configured the composed prompt goes to it and a failure wraps
// common.ErrExternalService, so callers can retry; without one the advice
// is deterministic and local.
func (a *Adviser) Advise(ctx context.Context, userID string, month time.Time) (string, error) {
	monthStart := model.MonthStart(month)

	comparisons, err := a.budgets.Compare(ctx, userID, monthStart)
	if err != nil {
		return "", err
	}
	if len(comparisons) == 0 {
		return "You have no budgets for this month yet. Set one up first to get advice.", nil
	}

	summary, err := buildSummaryAt(ctx, a.store, userID, a.cfg.WindowMonths, a.cfg.RecurringMinCount, monthStart)
	if err != nil {
		return "", err
	}

	if a.generator == nil {
		return heuristicAdvice(comparisons, summary), nil
	}

	advice, err := a.generator.Complete(ctx, adviceSystemPrompt, buildAdvicePrompt(monthStart, comparisons, summary))
	if err != nil {
		if errors.Is(err, common.ErrExternalService) || errors.Is(err, common.ErrRateLimit) {
			return "", fmt.Errorf("failed to generate advice: %w", err)
		}
		return "", fmt.Errorf("%w: failed to generate advice: %v", common.ErrExternalService, err)
	}

	advice = strings.TrimSpace(advice)
	if advice == "" {
		return "", fmt.Errorf("%w: generator returned empty advice", common.ErrExternalService)
	}

	a.log.Info("advice generated", "user", userID, "month", model.MonthKey(monthStart))
	return advice, nil
}

// buildAdvicePrompt renders the figures the generator is allowed to use.
func buildAdvicePrompt(monthStart time.Time, comparisons []model.BudgetComparison, summary *model.SpendingSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## My budget for %s\n\n", monthStart.Format("January 2006"))
	b.WriteString("### Budget vs. actual:\n")
	for _, c := range comparisons {
		status := "under budget"
		if c.Spent > c.Budgeted {
			status = fmt.Sprintf("OVER by %.2f", c.Spent-c.Budgeted)
		}
		fmt.Fprintf(&b, "- %s: budgeted %.2f, spent %.2f (%.0f%%) -> %s\n",
			c.CategoryName, c.Budgeted, c.Spent, c.Percentage, status)
	}

	fmt.Fprintf(&b, "\n### Spending over the last %d months:\n", len(summary.ByMonth))
	fmt.Fprintf(&b, "- Total spent: %.2f, total income: %.2f\n", summary.TotalSpent, summary.TotalIncome)
	for i, c := range summary.ByCategory {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s: %.2f across %d transactions\n", c.CategoryName, c.Total, c.Count)
	}

	if len(summary.Recurring) > 0 {
		b.WriteString("\n### Recurring charges:\n")
		for i, m := range summary.Recurring {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %d times, total %.2f\n", m.Description, m.Count, m.Total)
		}
	}

	b.WriteString("\nI want a concrete plan to stay inside my budget next month.")
	return b.String()
}

// heuristicAdvice composes deterministic advice without any external call:
// exceeded budgets by severity, the biggest spending category and the
// recurring total.
func heuristicAdvice(comparisons []model.BudgetComparison, summary *model.SpendingSummary) string {
	var over []model.BudgetComparison
	for _, c := range comparisons {
		if c.Spent > c.Budgeted {
			over = append(over, c)
		}
	}
	sort.SliceStable(over, func(i, j int) bool {
		oi, oj := over[i].Spent-over[i].Budgeted, over[j].Spent-over[j].Budgeted
		if oi != oj {
			return oi > oj
		}
		return over[i].CategoryID < over[j].CategoryID
	})

	var b strings.Builder
	if len(over) == 0 {
		b.WriteString("🎉 You are within budget in every category. Keep it up!\n")
	} else {
		b.WriteString("📊 Budget check:\n")
		for i, c := range over {
			if i == overBudgetAdviceCap {
				break
			}
			fmt.Fprintf(&b, "⚠️ %s: over by %.2f (%.0f%% of budget)\n",
				c.CategoryName, c.Spent-c.Budgeted, c.Percentage)
		}
	}

	if len(summary.ByCategory) > 0 {
		top := summary.ByCategory[0]
		fmt.Fprintf(&b, "💰 Your biggest spending category is %s: %.2f across %d transactions.\n",
			top.CategoryName, top.Total, top.Count)
	}
	if len(summary.Recurring) > 0 {
		var total float64
		for _, m := range summary.Recurring {
			total += m.Total
		}
		fmt.Fprintf(&b, "🔄 Recurring charges total %.2f. Review whether you still need each one.\n", total)
	}

	b.WriteString("\n💡 Next steps:\n")
	b.WriteString("1. Review the transactions behind any category that is over budget.\n")
	b.WriteString("2. Adjust budgets that are consistently unrealistic.\n")
	b.WriteString("3. Look for cheaper alternatives to your recurring charges.")
	return b.String()
}
