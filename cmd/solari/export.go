package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/budget"
	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/insight"
	"github.com/Veraticus/solari/internal/sheets"
)

func exportCmd() *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a monthly report to Google Sheets",
		Long: `Write the month's budget-vs-actual rows and spending summary to a tab
in a Google Sheets spreadsheet. The spreadsheet is created on first
export unless sheets.spreadsheet_id points at an existing one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			month, err := parseMonthFlag(monthValue)
			if err != nil {
				return err
			}

			scfg, err := config.LoadSheetsConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			comparisons, err := budget.NewTracker(store).Compare(ctx, user, month)
			if err != nil {
				return fmt.Errorf("failed to compare budgets: %w", err)
			}
			summary, err := insight.BuildMonthSummary(ctx, store, user, month)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}

			writer, err := sheets.NewWriter(ctx, *scfg)
			if err != nil {
				return err
			}

			url, err := writer.Write(ctx, user, month, comparisons, summary)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Report exported: " + url)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&monthValue, "month", "", "report month (YYYY-MM, default: current month)")
	return cmd
}
