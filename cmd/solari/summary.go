package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/insight"
)

func summaryCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize recent spending",
		Long: `Show totals, per-category and per-month spend, and recurring merchants
for the month in progress plus the calendar months before it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			summary, err := insight.BuildSummary(ctx, store, currentUser(), months)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}

			fmt.Println(cli.RenderSummary(summary)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 3, "calendar months before the current one to include")
	return cmd
}
