package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/solari/internal/api"
	"github.com/Veraticus/solari/internal/budget"
	"github.com/Veraticus/solari/internal/certs"
	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/config"
	"github.com/Veraticus/solari/internal/importer"
	"github.com/Veraticus/solari/internal/insight"
	"github.com/Veraticus/solari/internal/llm"
	"github.com/Veraticus/solari/internal/rules"
)

func serveCmd() *cobra.Command {
	var withTLS bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the REST API that exposes imports, categories, rules, budgets,
insights, goals and advice over HTTP. The server runs until interrupted
and shuts down gracefully. With --tls it serves HTTPS using a
self-signed localhost certificate kept under the config directory.`,
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

			generator, err := llm.NewClient(cfg.LLM)
			if err != nil {
				return err
			}

			locks := common.NewKeyedMutex()
			tracker := budget.NewTracker(store)

			srv := api.NewServer(api.Deps{
				Store:   store,
				Rules:   rules.NewService(store, rules.NewLearner(), locks),
				Imports: importer.NewReconciler(store, rules.NewMatcher(store), locks),
				Budgets: tracker,
				Engine:  insight.NewEngineWithConfig(store, tracker, cfg.Insight),
				Adviser: insight.NewAdviserWithConfig(store, tracker, generator, cfg.Insight),
			})

			if withTLS {
				dir, dirErr := config.Dir()
				if dirErr != nil {
					return dirErr
				}
				cert, certErr := certs.NewFileManager(filepath.Join(dir, "certs")).GetOrCreateCertificate()
				if certErr != nil {
					return certErr
				}
				return srv.ListenTLS(ctx, cfg.Server.Addr, cert)
			}
			return srv.Listen(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default: server.addr from config)")
	cmd.Flags().BoolVar(&withTLS, "tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
