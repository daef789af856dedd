package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rdevries/taskfolio/internal/api/handlers"
	custommiddleware "github.com/rdevries/taskfolio/internal/api/middleware"
	"github.com/rdevries/taskfolio/internal/config"
	"github.com/rdevries/taskfolio/internal/service"
)

// Services bundles the service dependencies the router wires into handlers.
type Services struct {
	System      *service.SystemService
	Portfolio   *service.PortfolioService
	Holdings    *service.HoldingsService
	Transaction *service.TransactionService
	Task        *service.TaskService
	Sync        *service.SyncService
	Stock       *service.StockService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
		})

		portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Holdings, svc.Transaction)
		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/holdings", portfolioHandler.Holdings)
				r.Get("/transactions", portfolioHandler.Transactions)
				r.Post("/transactions", portfolioHandler.CreateTransaction)
			})
		})

		transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
		r.Route("/transactions/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUUIDMiddleware)
			r.Put("/", transactionHandler.Update)
			r.Delete("/", transactionHandler.Delete)
		})

		taskHandler := handlers.NewTaskHandler(svc.Task, svc.Sync)
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.Tasks)
			r.Post("/", taskHandler.CreateTask)
			r.Post("/push", taskHandler.Push)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Put("/", taskHandler.UpdateTask)
			})
		})
		r.Get("/lists", taskHandler.Lists)

		syncHandler := handlers.NewSyncHandler(svc.Sync)
		r.Route("/sync", func(r chi.Router) {
			r.Post("/process", syncHandler.Process)
			r.Post("/trigger", syncHandler.Trigger)
			r.Get("/status", syncHandler.Status)
		})

		stockHandler := handlers.NewStockHandler(svc.Stock)
		r.Route("/stocks", func(r chi.Router) {
			r.Post("/refresh", stockHandler.Refresh)
			r.Post("/cache/clear", stockHandler.ClearCache)
			r.Get("/{symbol}", stockHandler.Get)
		})
	})

	return r
}
