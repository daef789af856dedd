package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rdevries/taskfolio/internal/api"
	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/config"
	"github.com/rdevries/taskfolio/internal/database"
	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/provider"
	"github.com/rdevries/taskfolio/internal/quotes"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/service"
	"github.com/rdevries/taskfolio/internal/stockcache"
	"github.com/rdevries/taskfolio/internal/tokens"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Token vault. Without a configured key, tokens encrypted this run are
	// unreadable after restart; acceptable for development only.
	var vault *tokens.Vault
	if cfg.Tokens.FernetKey != "" {
		vault, err = tokens.NewVault(cfg.Tokens.FernetKey)
	} else {
		log.Println("TOKEN_FERNET_KEY not set, using an ephemeral key")
		vault, err = tokens.NewRandomVault()
	}
	if err != nil {
		log.Fatalf("Failed to initialize token vault: %v", err)
	}

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	stockRepo := repository.NewStockRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	taskListRepo := repository.NewTaskListRepository(db)
	tokenRepo := repository.NewTokenRepository(db, vault)
	syncStatusRepo := repository.NewSyncStatusRepository(db)

	// External clients
	quoteClient := quotes.NewClient(
		cfg.Quotes.BaseURL,
		cfg.Quotes.APIKey,
		cfg.Quotes.RequestTimeout,
		cfg.Quotes.InterCallDelay,
	)
	cache := stockcache.NewService(
		quoteClient,
		stockRepo,
		cfg.Cache.PriceTTL,
		cfg.Cache.DetailsTTL,
		cfg.Cache.BulkResultTTL,
	)

	providerHTTP := &http.Client{Timeout: cfg.Sync.RequestTimeout}
	google := provider.NewGoogle(providerHTTP, cfg.Sync.GoogleBaseURL, cfg.Sync.PageSize, cfg.Sync.MaxPages)
	microsoft := provider.NewMicrosoft(providerHTTP, cfg.Sync.MicrosoftBaseURL, cfg.Sync.PageSize, cfg.Sync.MaxPages)

	dispatcher := dispatch.NewLoopback(&http.Client{Timeout: 5 * time.Minute}, cfg.Dispatch.BaseURL)

	// Create services
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(portfolioRepo)
	transactionService := service.NewTransactionService(transactionRepo, portfolioRepo)
	holdingsService := service.NewHoldingsService(portfolioRepo, transactionRepo, cache)
	stockService := service.NewStockService(cache, transactionRepo)
	taskService := service.NewTaskService(taskRepo, taskListRepo, dispatcher)
	syncService := service.NewSyncService(tokenRepo, taskRepo, taskListRepo, syncStatusRepo, dispatcher, google, microsoft)

	// Create router
	router := api.NewRouter(api.Services{
		System:      systemService,
		Portfolio:   portfolioService,
		Holdings:    holdingsService,
		Transaction: transactionService,
		Task:        taskService,
		Sync:        syncService,
		Stock:       stockService,
	}, cfg)

	// Scheduled jobs run through the dispatcher so they share the idempotent
	// HTTP endpoints with user-triggered work.
	scheduler := cron.New()
	_, err = scheduler.AddFunc("30 16 * * 1-5", func() {
		payload := request.RefreshStocksRequest{}
		if err := dispatcher.Enqueue(context.Background(), "/api/stocks/refresh", payload, dispatch.WithName("daily-stock-refresh")); err != nil {
			log.Printf("Failed to enqueue daily stock refresh: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule stock refresh: %v", err)
	}
	_, err = scheduler.AddFunc("*/15 * * * *", func() {
		if _, err := syncService.TriggerAll(context.Background()); err != nil {
			log.Printf("Failed to trigger scheduled syncs: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule task sync: %v", err)
	}
	scheduler.Start()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
