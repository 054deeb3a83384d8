package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/budget"
	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budgets",
		Long:  `Set monthly spending targets per category and compare them against actual spend.`,
	}

	cmd.AddCommand(setBudgetsCmd())
	cmd.AddCommand(showBudgetsCmd())
	cmd.AddCommand(compareBudgetsCmd())

	return cmd
}

func setBudgetsCmd() *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "set <category=amount> [more...]",
		Short: "Set category budgets for a month",
		Long: `Set one or more category budgets. Categories are given by name or id;
an amount of 0 removes that budget.

Examples:
  solari budgets set Food=400 Transport=120
  solari budgets set Food=0 --month 2026-07`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			month, err := parseMonthFlag(monthValue)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			items := make([]model.BudgetItem, 0, len(args))
			for _, arg := range args {
				name, amountStr, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid budget %q; expected category=amount", arg)
				}

				cat, err := resolveCategory(ctx, store, user, name)
				if err != nil {
					return err
				}
				amount, err := strconv.ParseFloat(amountStr, 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q for %s", amountStr, cat.Name)
				}

				items = append(items, model.BudgetItem{CategoryID: cat.ID, Amount: amount})
			}

			if _, err := budget.NewTracker(store).Save(ctx, user, month, items); err != nil {
				return fmt.Errorf("failed to save budgets: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %d budget(s) for %s", len(items), model.MonthKey(month)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&monthValue, "month", "", "budget month (YYYY-MM, default: current month)")
	return cmd
}

func showBudgetsCmd() *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the budgets set for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			month, err := parseMonthFlag(monthValue)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			budgets, err := store.GetBudgets(ctx, user, month)
			if err != nil {
				return fmt.Errorf("failed to get budgets: %w", err)
			}
			categories, err := store.GetCategories(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			items := make([]model.BudgetItem, 0, len(budgets))
			for _, b := range budgets {
				items = append(items, model.BudgetItem{CategoryID: b.CategoryID, Amount: b.Amount})
			}

			fmt.Println(cli.RenderBudgets(model.MonthKey(month), items, categories)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&monthValue, "month", "", "budget month (YYYY-MM, default: current month)")
	return cmd
}

func compareBudgetsCmd() *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare budgets against actual spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			month, err := parseMonthFlag(monthValue)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			comparisons, err := budget.NewTracker(store).Compare(ctx, currentUser(), month)
			if err != nil {
				return fmt.Errorf("failed to compare budgets: %w", err)
			}

			fmt.Println(cli.RenderComparisons(model.MonthKey(month), comparisons)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&monthValue, "month", "", "month to compare (YYYY-MM, default: current month)")
	return cmd
}
