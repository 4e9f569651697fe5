package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/balances"
	"github.com/sawit-erp/sawit-erp/internal/accounting/companies"
	"github.com/sawit-erp/sawit-erp/internal/accounting/journals"
	"github.com/sawit-erp/sawit-erp/internal/accounting/mappings"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/app"
	"github.com/sawit-erp/sawit-erp/internal/platform/cache"
	"github.com/sawit-erp/sawit-erp/internal/platform/db"
	"github.com/sawit-erp/sawit-erp/internal/shared"
	"github.com/sawit-erp/sawit-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis only backs the trial balance cache and job observability, so a
	// failed connection degrades rather than aborts.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	companiesRepo := companies.NewRepository(pool)
	companiesHandler := companies.NewHandler(logger, companiesRepo)

	accountsService := accounts.NewService(accounts.NewRepository(pool), nil, nil)
	periodsService := periods.NewService(periods.NewRepository(pool), auditLogger)
	mappingsService := mappings.NewService(mappings.NewRepository(pool), accountsService)
	journalsService := journals.NewService(journals.NewRepository(pool), auditLogger)
	balancesService := balances.NewService(balances.NewRepository(pool), accountsService, periodsService)
	accountsService.WithBalanceGuard(balancesService, periodsService)

	balancesCache := balances.NewCache(redisClient, cfg.TrialBalanceCacheTTL)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CompaniesHandler: companiesHandler,
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		PeriodsHandler:   periods.NewHandler(logger, periodsService),
		MappingsHandler:  mappings.NewHandler(logger, mappingsService),
		JournalsHandler:  journals.NewHandler(logger, journalsService),
		BalancesHandler:  balances.NewHandler(logger, balancesService, balancesCache),
		JobsHandler:      jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
