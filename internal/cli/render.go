package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/solari/internal/model"
)

// Money renders a signed amount in dollars.
func Money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func newTable(sb *strings.Builder) *tabwriter.Writer {
	return tabwriter.NewWriter(sb, 0, 0, 2, ' ', 0)
}

func headerRow(w io.Writer, cols ...string) {
	rendered := make([]string, len(cols))
	seps := make([]string, len(cols))
	for i, col := range cols {
		rendered[i] = TableHeaderStyle.Render(col)
		seps[i] = strings.Repeat("─", len(col))
	}
	_, _ = fmt.Fprintln(w, strings.Join(rendered, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(seps, "\t"))
}

func categoryNames(cats []model.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, cat := range cats {
		names[cat.ID] = cat.Name
	}
	return names
}

// RenderCategories lays out the user's categories as a table.
func RenderCategories(cats []model.Category) string {
	if len(cats) == 0 {
		return InfoStyle.Render("No categories yet. Use 'solari categories add' to create one.")
	}

	names := categoryNames(cats)

	var sb strings.Builder
	sb.WriteString(FormatTitle("Categories"))
	sb.WriteString("\n\n")

	w := newTable(&sb)
	headerRow(w, "ID", "Name", "Type", "Parent")
	for _, cat := range cats {
		kind := "expense"
		if cat.IsIncome {
			kind = "income"
		}
		parent := ""
		if cat.ParentID != nil {
			parent = names[*cat.ParentID]
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, kind, parent)
	}
	_ = w.Flush()

	return sb.String()
}

// RenderRules lays out the user's categorization rules as a table.
func RenderRules(rules []model.CategoryRule, cats []model.Category) string {
	if len(rules) == 0 {
		return InfoStyle.Render("No rules yet. Rules are learned from manual categorizations or added with 'solari rules add'.")
	}

	names := categoryNames(cats)

	var sb strings.Builder
	sb.WriteString(FormatTitle("Rules"))
	sb.WriteString("\n\n")

	w := newTable(&sb)
	headerRow(w, "ID", "Keyword", "Category", "Source")
	for _, rule := range rules {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", rule.ID, rule.Keyword, names[rule.CategoryID], rule.Source)
	}
	_ = w.Flush()

	return sb.String()
}

// RenderBudgets lays out one month's budget amounts.
func RenderBudgets(month string, items []model.BudgetItem, cats []model.Category) string {
	if len(items) == 0 {
		return InfoStyle.Render(fmt.Sprintf("No budgets set for %s.", month))
	}

	names := categoryNames(cats)

	var sb strings.Builder
	sb.WriteString(FormatTitle("Budgets for " + month))
	sb.WriteString("\n\n")

	var total float64
	w := newTable(&sb)
	headerRow(w, "Category", "Budgeted")
	for _, item := range items {
		total += item.Amount
		_, _ = fmt.Fprintf(w, "%s\t%s\n", names[item.CategoryID], Money(item.Amount))
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\n", BoldStyle.Render("Total"), Money(total))
	_ = w.Flush()

	return sb.String()
}

// RenderComparisons lays out one month's budget-vs-actual table, flagging
// categories near or over their budget.
func RenderComparisons(month string, comps []model.BudgetComparison) string {
	if len(comps) == 0 {
		return InfoStyle.Render(fmt.Sprintf("No budgets set for %s.", month))
	}

	var sb strings.Builder
	sb.WriteString(FormatTitle("Budget vs Actual for " + month))
	sb.WriteString("\n\n")

	w := newTable(&sb)
	headerRow(w, "Category", "Budgeted", "Spent", "Difference", "Used", "")
	for _, comp := range comps {
		var status string
		switch {
		case comp.Percentage > 100:
			status = ErrorStyle.Render("over")
		case comp.Percentage >= 80:
			status = WarningStyle.Render("near")
		default:
			status = SuccessStyle.Render("ok")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			comp.CategoryName,
			Money(comp.Budgeted),
			Money(comp.Spent),
			Money(comp.Difference),
			comp.Percentage,
			status)
	}
	_ = w.Flush()

	return sb.String()
}

// RenderAlerts lays out alerts newest first, with unread titles bolded.
func RenderAlerts(alerts []model.Alert, unread int) string {
	if len(alerts) == 0 {
		return InfoStyle.Render("No alerts. Run 'solari insights generate' to scan for new ones.")
	}

	var sb strings.Builder
	sb.WriteString(FormatTitle("Alerts"))
	sb.WriteString("\n\n")

	for _, alert := range alerts {
		title := alert.Title
		if !alert.IsRead {
			title = BoldStyle.Render(title)
		}

		sb.WriteString(fmt.Sprintf("%s %s  %s\n",
			alert.Icon, title, SubtleStyle.Render(alert.CreatedAt.Format("2006-01-02"))))
		sb.WriteString("   " + alert.Message + "\n")

		meta := "id " + alert.ID
		if alert.IsDismissed {
			meta += " (dismissed)"
		}
		sb.WriteString("   " + SubtleStyle.Render(meta) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(SubtleStyle.Render(fmt.Sprintf("%d unread", unread)))

	return sb.String()
}

// RenderGoals lays out the user's savings goals.
func RenderGoals(goals []model.Goal) string {
	if len(goals) == 0 {
		return InfoStyle.Render("No goals yet. Use 'solari goals set' to create one.")
	}

	var sb strings.Builder
	sb.WriteString(FormatTitle("Goals"))
	sb.WriteString("\n\n")

	w := newTable(&sb)
	headerRow(w, "ID", "Name", "Monthly Target", "Since")
	for _, goal := range goals {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			goal.ID, goal.Name, Money(goal.TargetAmount), goal.CreatedAt.Format("2006-01-02"))
	}
	_ = w.Flush()

	return sb.String()
}

// RenderSummary lays out a spending summary: totals, category and month
// breakdowns, and detected recurring merchants.
func RenderSummary(s *model.SpendingSummary) string {
	var sb strings.Builder
	sb.WriteString(FormatTitle("Spending Summary"))
	sb.WriteString("\n")
	sb.WriteString(SubtleStyle.Render(fmt.Sprintf("%s to %s",
		s.From.Format("2006-01-02"), s.To.Format("2006-01-02"))))
	sb.WriteString("\n\n")

	w := newTable(&sb)
	_, _ = fmt.Fprintf(w, "%s\t%s\n", "Total income", Money(s.TotalIncome))
	_, _ = fmt.Fprintf(w, "%s\t%s\n", "Total spent", Money(s.TotalSpent))
	_, _ = fmt.Fprintf(w, "%s\t%s\n", BoldStyle.Render("Net"), Money(s.TotalIncome-s.TotalSpent))
	_ = w.Flush()

	if len(s.ByCategory) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("By category") + "\n")
		w = newTable(&sb)
		headerRow(w, "Category", "Spent", "Transactions")
		for _, cat := range s.ByCategory {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", cat.CategoryName, Money(cat.Total), cat.Count)
		}
		_ = w.Flush()
	}

	if len(s.ByMonth) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("By month") + "\n")
		w = newTable(&sb)
		headerRow(w, "Month", "Spent")
		for _, month := range s.ByMonth {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", month.Month, Money(month.Total))
		}
		_ = w.Flush()
	}

	if len(s.Recurring) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("Recurring merchants") + "\n")
		w = newTable(&sb)
		headerRow(w, "Merchant", "Times", "Total")
		for _, rec := range s.Recurring {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", rec.Description, rec.Count, Money(rec.Total))
		}
		_ = w.Flush()
	}

	return sb.String()
}

// maxRejectedShown caps how many rejected rows an import prints per file.
const maxRejectedShown = 5

// RenderImportResult summarizes one source's import outcome, listing up to
// a handful of rejected rows.
func RenderImportResult(source string, res *model.ImportResult) string {
	var sb strings.Builder
	sb.WriteString(FormatSuccess(fmt.Sprintf("%s: %d imported, %d duplicates, %d skipped",
		source, res.Created, res.Duplicates, res.Skipped)))

	for i, rej := range res.Rejected {
		if i == maxRejectedShown {
			sb.WriteString("\n" + SubtleStyle.Render(fmt.Sprintf("   ... and %d more", len(res.Rejected)-maxRejectedShown)))
			break
		}
		sb.WriteString("\n" + WarningStyle.Render(fmt.Sprintf("   row %d: %s", rej.Index, rej.Reason)))
	}

	return sb.String()
}

// RenderAdvice frames the month's advice in a box.
func RenderAdvice(month, advice string) string {
	return RenderBox("Advice for "+month, advice)
}
