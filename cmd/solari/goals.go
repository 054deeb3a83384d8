package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/cli"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
		Long:  `Set monthly savings targets. Advice weighs goals against what the month actually left over.`,
	}

	cmd.AddCommand(listGoalsCmd())
	cmd.AddCommand(setGoalCmd())
	cmd.AddCommand(removeGoalCmd())

	return cmd
}

func listGoalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			goals, err := store.GetGoals(ctx, currentUser())
			if err != nil {
				return fmt.Errorf("failed to get goals: %w", err)
			}

			fmt.Println(cli.RenderGoals(goals)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func setGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <monthly-target>",
		Short: "Create or update a goal",
		Long: `Set a goal's monthly savings target. Goals are keyed by name, so setting
an existing name updates its target.

Example:
  solari goals set "Emergency fund" 500`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid target amount %q", args[1])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			goal, err := store.UpsertGoal(ctx, currentUser(), args[0], target)
			if err != nil {
				return fmt.Errorf("failed to save goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Goal %q targets %s per month", goal.Name, cli.Money(goal.TargetAmount)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func removeGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid goal id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.DeleteGoal(ctx, currentUser(), id); err != nil {
				return fmt.Errorf("failed to delete goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted goal %d", id))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
