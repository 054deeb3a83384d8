package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/budget"
	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/insight"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Derive insights from recent activity",
	}

	cmd.AddCommand(generateInsightsCmd())

	return cmd
}

func generateInsightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Scan recent activity and raise new alerts",
		Long: `Run the alert rules over recent activity: category spending anomalies,
budget overruns, month-over-month swings, missing recurring charges and
goal progress. Alerts already raised for the same finding are not
duplicated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			engine := insight.NewEngineWithConfig(store, budget.NewTracker(store), cfg.Insight)

			created, err := engine.Generate(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to generate insights: %w", err)
			}

			if len(created) == 0 {
				fmt.Println(cli.FormatInfo("Nothing new; no alerts raised.")) //nolint:forbidigo // User-facing output
				return nil
			}

			unread, err := store.UnreadAlertCount(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to count unread alerts: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Raised %d new alert(s)", len(created)))) //nolint:forbidigo // User-facing output
			fmt.Println(cli.RenderAlerts(created, unread))                                      //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
