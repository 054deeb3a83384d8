package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/rules"
	"github.com/Veraticus/solari/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `List, add, and remove keyword rules. Rules categorize future imports
automatically; most are learned from manual categorizations.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(removeRuleCmd())

	return cmd
}

func newRuleService(store service.Storage) *rules.Service {
	return rules.NewService(store, rules.NewLearner(), common.NewKeyedMutex())
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			ruleList, err := newRuleService(store).ListRules(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			categories, err := store.GetCategories(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			fmt.Println(cli.RenderRules(ruleList, categories)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <keyword> <category>",
		Short: "Add a rule",
		Long: `Create a rule mapping a keyword to a category (by name or id). Imports
whose description contains the keyword get the category automatically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			cat, err := resolveCategory(ctx, store, user, args[1])
			if err != nil {
				return err
			}

			rule, err := newRuleService(store).CreateRule(ctx, user, args[0], cat.ID)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d maps %q to %s", rule.ID, rule.Keyword, cat.Name))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func removeRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := newRuleService(store).DeleteRule(ctx, currentUser(), id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
