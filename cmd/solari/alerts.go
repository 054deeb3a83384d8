package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/cli"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review spending alerts",
		Long:  `List alerts raised by 'solari insights generate', mark them read, or dismiss them.`,
	}

	cmd.AddCommand(listAlertsCmd())
	cmd.AddCommand(readAlertCmd())
	cmd.AddCommand(dismissAlertCmd())

	return cmd
}

func listAlertsCmd() *cobra.Command {
	var (
		all   bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user := currentUser()
			alerts, err := store.GetAlerts(ctx, user, all, limit)
			if err != nil {
				return fmt.Errorf("failed to get alerts: %w", err)
			}
			unread, err := store.UnreadAlertCount(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to count unread alerts: %w", err)
			}

			fmt.Println(cli.RenderAlerts(alerts, unread)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include dismissed alerts")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum alerts to show")

	return cmd
}

func readAlertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.MarkAlertRead(ctx, currentUser(), args[0]); err != nil {
				return fmt.Errorf("failed to mark alert read: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Alert marked read")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func dismissAlertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss an alert",
		Long:  `Dismissed alerts drop out of the default list but are kept; --all shows them.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.DismissAlert(ctx, currentUser(), args[0]); err != nil {
				return fmt.Errorf("failed to dismiss alert: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Alert dismissed")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
