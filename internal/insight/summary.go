// Package insight derives spending summaries, alerts and advice from a
// user's stored activity.
package insight

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

// recurringTopN caps how many recurring merchants a summary reports.
const recurringTopN = 10

// recurringGroupDistance is the edit distance under which two normalized
// descriptions are treated as the same merchant. Bank rows append varying
// reference digits, so near-identical strings must count together.
const recurringGroupDistance = 2

// BuildSummary describes the user's activity over the month in progress plus
// the `months` calendar months before it: totals, per-category and per-month
// spend, and recurring merchants.
func BuildSummary(ctx context.Context, store service.Storage, userID string, months int) (*model.SpendingSummary, error) {
	return buildSummaryAt(ctx, store, userID, months, DefaultConfig().RecurringMinCount, time.Now().UTC())
}

// BuildMonthSummary describes the user's activity within a single calendar
// month, for month-scoped reports.
func BuildMonthSummary(ctx context.Context, store service.Storage, userID string, month time.Time) (*model.SpendingSummary, error) {
	from := model.MonthStart(month)
	return buildSummaryWindow(ctx, store, userID, DefaultConfig().RecurringMinCount, from, from.AddDate(0, 1, 0))
}

func buildSummaryAt(ctx context.Context, store service.Storage, userID string, months, minRecurring int, now time.Time) (*model.SpendingSummary, error) {
	if months < 1 {
		months = 1
	}
	monthStart := model.MonthStart(now)
	return buildSummaryWindow(ctx, store, userID, minRecurring, monthStart.AddDate(0, -months, 0), monthStart.AddDate(0, 1, 0))
}

func buildSummaryWindow(ctx context.Context, store service.Storage, userID string, minRecurring int, from, to time.Time) (*model.SpendingSummary, error) {
	expenses, err := store.GetExpensesByPeriod(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	income, spent, err := store.NetFlow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	categories, err := store.GetCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	return &model.SpendingSummary{
		From:        from,
		To:          to,
		TotalSpent:  spent,
		TotalIncome: income,
		ByCategory:  categoryTotals(expenses, names),
		ByMonth:     monthTotals(expenses),
		Recurring:   recurringMerchants(expenses, minRecurring),
	}, nil
}

// categoryTotals groups expenses by category, uncategorized spend included
// as its own bucket, sorted by total descending.
func categoryTotals(expenses []model.Transaction, names map[int64]string) []model.CategorySpend {
	buckets := make(map[int64]*model.CategorySpend)
	for _, txn := range expenses {
		var id int64
		if txn.CategoryID != nil {
			id = *txn.CategoryID
		}
		bucket := buckets[id]
		if bucket == nil {
			bucket = &model.CategorySpend{CategoryName: "Uncategorized"}
			if id != 0 {
				categoryID := id
				bucket.CategoryID = &categoryID
				bucket.CategoryName = names[id]
			}
			buckets[id] = bucket
		}
		bucket.Total += math.Abs(txn.Amount)
		bucket.Count++
	}

	totals := make([]model.CategorySpend, 0, len(buckets))
	for _, bucket := range buckets {
		totals = append(totals, *bucket)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].CategoryName < totals[j].CategoryName
	})
	return totals
}

// monthTotals sums expenses per calendar month, oldest first.
func monthTotals(expenses []model.Transaction) []model.MonthSpend {
	totals := make(map[string]float64)
	for _, txn := range expenses {
		totals[model.MonthKey(txn.Date)] += math.Abs(txn.Amount)
	}

	months := make([]model.MonthSpend, 0, len(totals))
	for month, total := range totals {
		months = append(months, model.MonthSpend{Month: month, Total: total})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// recurringMerchants finds normalized descriptions that repeat across the
// window. Descriptions within recurringGroupDistance of a more frequent one
// fold into its group; groups below minCount are dropped and the rest come
// back by count descending, capped at recurringTopN.
func recurringMerchants(expenses []model.Transaction, minCount int) []model.RecurringMerchant {
	type group struct {
		desc  string
		total float64
		count int
	}

	byDesc := make(map[string]*group)
	var order []string
	for _, txn := range expenses {
		desc := txn.NormalizedDesc
		if desc == "" {
			continue
		}
		g := byDesc[desc]
		if g == nil {
			g = &group{desc: desc}
			byDesc[desc] = g
			order = append(order, desc)
		}
		g.count++
		g.total += math.Abs(txn.Amount)
	}

	// Most frequent spellings become group representatives.
	sort.SliceStable(order, func(i, j int) bool {
		a, b := byDesc[order[i]], byDesc[order[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.desc < b.desc
	})

	var groups []*group
	for _, desc := range order {
		g := byDesc[desc]
		merged := false
		for _, rep := range groups {
			if levenshtein.ComputeDistance(rep.desc, g.desc) <= recurringGroupDistance {
				rep.count += g.count
				rep.total += g.total
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, g)
		}
	}

	var merchants []model.RecurringMerchant
	for _, g := range groups {
		if g.count < minCount {
			continue
		}
		merchants = append(merchants, model.RecurringMerchant{
			Description: g.desc,
			Total:       g.total,
			Count:       g.count,
		})
	}
	sort.SliceStable(merchants, func(i, j int) bool {
		if merchants[i].Count != merchants[j].Count {
			return merchants[i].Count > merchants[j].Count
		}
		return merchants[i].Description < merchants[j].Description
	})
	if len(merchants) > recurringTopN {
		merchants = merchants[:recurringTopN]
	}
	return merchants
}
