package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
		Long:  `List, add, and remove the categories transactions are classified into.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(removeCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			categories, err := store.GetCategories(ctx, currentUser())
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			fmt.Println(cli.RenderCategories(categories)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		income bool
		parent string
		color  string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long:  `Create a new category. Names are unique per user.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			params := service.CategoryParams{
				Name:     args[0],
				Color:    color,
				IsIncome: income,
			}

			if parent != "" {
				parentCat, err := resolveCategory(ctx, store, user, parent)
				if err != nil {
					return fmt.Errorf("failed to resolve parent category: %w", err)
				}
				params.ParentID = &parentCat.ID
			}

			cat, err := store.CreateCategory(ctx, user, params)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (id %d)", cat.Name, cat.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().BoolVar(&income, "income", false, "treat transactions in this category as income")
	cmd.Flags().StringVar(&parent, "parent", "", "parent category (name or id)")
	cmd.Flags().StringVar(&color, "color", "", "display color, e.g. #FFB454")

	return cmd
}

func removeCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <category>",
		Short: "Remove a category",
		Long: `Delete a category by name or id. Its transactions are kept and become
uncategorized; its rules and budgets are removed with it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			cat, err := resolveCategory(ctx, store, user, args[0])
			if err != nil {
				return err
			}

			if err := store.DeleteCategory(ctx, user, cat.ID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %q", cat.Name))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
