// Package api exposes the core operations as a JSON HTTP service. Handlers
// are thin shims that parse the request and call one core operation; the
// shared error handler maps sentinel errors to statuses.
package api

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Veraticus/solari/internal/service"
	"github.com/Veraticus/solari/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// Server is the HTTP front end over the core services.
type Server struct {
	app     *fiber.App
	store   service.Storage
	rules   RuleService
	imports Reconciler
	budgets BudgetTracker
	engine  AlertEngine
	adviser Adviser
	log     *slog.Logger
}

// Deps bundles everything a Server serves.
type Deps struct {
	Store   service.Storage
	Rules   RuleService
	Imports Reconciler
	Budgets BudgetTracker
	Engine  AlertEngine
	Adviser Adviser
}

// NewServer builds the app with all middleware and routes registered.
func NewServer(deps Deps) *Server {
	s := &Server{
		store:   deps.Store,
		rules:   deps.Rules,
		imports: deps.Imports,
		budgets: deps.Budgets,
		engine:  deps.Engine,
		adviser: deps.Adviser,
		log:     slog.Default().With("component", "api"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "solari",
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(s.requestID())
	app.Use(s.requestLogger())

	app.Get("/healthz", s.health)

	v1 := app.Group("/api/v1", s.requireUser())

	v1.Get("/transactions", s.listTransactions)
	v1.Post("/transactions/import", s.importTransactions)
	v1.Patch("/transactions/:id/category", s.assignCategory)

	v1.Get("/categories", s.listCategories)
	v1.Post("/categories", s.createCategory)
	v1.Delete("/categories/:id", s.deleteCategory)

	v1.Get("/rules", s.listRules)
	v1.Post("/rules", s.createRule)
	v1.Delete("/rules/:id", s.deleteRule)

	v1.Put("/budgets/:month", s.saveBudgets)
	v1.Get("/budgets/:month", s.getBudgets)
	v1.Get("/budgets/:month/comparison", s.compareBudgets)

	v1.Post("/insights/generate", s.generateInsights)
	v1.Get("/alerts", s.listAlerts)
	v1.Post("/alerts/:id/read", s.readAlert)
	v1.Post("/alerts/:id/dismiss", s.dismissAlert)

	v1.Get("/goals", s.listGoals)
	v1.Post("/goals", s.saveGoal)
	v1.Delete("/goals/:id", s.deleteGoal)

	v1.Get("/summary", s.getSummary)
	v1.Get("/advice", s.getAdvice)

	s.app = app
	return s
}

// Listen serves until the context is cancelled, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) Listen(ctx context.Context, addr string) error {
	return s.serve(ctx, addr, func() error { return s.app.Listen(addr) })
}

// ListenTLS is Listen over TLS with the given certificate.
func (s *Server) ListenTLS(ctx context.Context, addr string, cert tls.Certificate) error {
	return s.serve(ctx, addr, func() error { return s.app.ListenTLSWithCertificate(addr, cert) })
}

func (s *Server) serve(ctx context.Context, addr string, listen func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- listen() }()

	s.log.Info("api listening", "addr", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down api", "timeout", shutdownTimeout)
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"schema_version": storage.ExpectedSchemaVersion,
	})
}
