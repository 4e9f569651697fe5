package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sawit-erp/sawit-erp/internal/accounting/accounts"
	"github.com/sawit-erp/sawit-erp/internal/accounting/balances"
	"github.com/sawit-erp/sawit-erp/internal/accounting/companies"
	"github.com/sawit-erp/sawit-erp/internal/accounting/periods"
	"github.com/sawit-erp/sawit-erp/internal/app"
	"github.com/sawit-erp/sawit-erp/internal/platform/db"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	companiesRepo := companies.NewRepository(pool)
	accountsService := accounts.NewService(accounts.NewRepository(pool), nil, nil)
	periodsService := periods.NewService(periods.NewRepository(pool), nil)
	balancesService := balances.NewService(balances.NewRepository(pool), accountsService, periodsService)

	integrityJob := jobs.NewGLIntegrityJob(companiesRepo, balancesService, logger)

	integrityTask, err := jobs.NewGLIntegrityTask(time.Time{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeGLIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.GLIntegrityCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
