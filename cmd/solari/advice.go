package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/solari/internal/budget"
	"github.com/Veraticus/solari/internal/cli"
	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/insight"
	"github.com/Veraticus/solari/internal/llm"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

func adviceCmd() *cobra.Command {
	var monthValue string

	cmd := &cobra.Command{
		Use:   "advice",
		Short: "Get written advice about a month's spending",
		Long: `Compose advice from the month's budget comparisons, spending summary
and goals. With an LLM provider configured the composition is delegated
to it; without one the advice is assembled locally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			month, err := parseMonthFlag(monthValue)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			generator, err := llm.NewClient(cfg.LLM)
			if err != nil {
				return err
			}

			adviser := insight.NewAdviserWithConfig(store, budget.NewTracker(store), generator, cfg.Insight)

			// Advise fails retryably when the LLM provider hiccups.
			var text string
			err = common.WithRetry(ctx, func() error {
				var adviseErr error
				text, adviseErr = adviser.Advise(ctx, currentUser(), month)
				return adviseErr
			}, service.RetryOptions{
				MaxAttempts:  3,
				InitialDelay: time.Second,
				MaxDelay:     10 * time.Second,
				Multiplier:   2.0,
			})
			if err != nil {
				return common.NewUserError("could not compose advice for "+model.MonthKey(month), err)
			}

			fmt.Println(cli.RenderAdvice(model.MonthKey(month), text)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&monthValue, "month", "", "month to advise on (YYYY-MM, default: current month)")
	return cmd
}
