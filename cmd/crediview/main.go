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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/crediview/crediview/internal/analytics"
	analytichttp "github.com/crediview/crediview/internal/analytics/http"
	"github.com/crediview/crediview/internal/app"
	"github.com/crediview/crediview/internal/dataset"
	"github.com/crediview/crediview/internal/titles"
	"github.com/crediview/crediview/jobs"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var loader dataset.Loader
	var dbpool *pgxpool.Pool
	switch cfg.DatasetSource {
	case "postgres":
		dbpool, err = pgxpool.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		loader = dataset.NewPostgresLoader(dbpool, cfg.DatasetPGTable)
	default:
		loader = dataset.NewXLSXLoader(cfg.DatasetXLSX)
	}

	store := titles.NewStore()
	cache := analytics.NewCache(redisClient, cfg.CacheTTL)
	if err := cache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	service := analytics.NewService(store, cache)
	refresher := dataset.NewRefresher(loader, store, cache, logger)

	// Initial load; the API still starts on an empty snapshot if the
	// source is down, and a later refresh recovers.
	if err := refresher.Refresh(ctx); err != nil {
		logger.Warn("initial dataset load", slog.Any("error", err))
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	var cron []jobs.CronRegistration
	if cfg.RefreshCron != "" {
		task, err := jobs.NewDatasetRefreshTask(jobs.DatasetRefreshPayload{Reason: "cron"})
		if err != nil {
			logger.Error("build refresh task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.RefreshCron, Task: task})
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDatasetRefresh, Handler: jobs.RefreshHandler(refresher, logger)},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}
	go func() {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("worker stopped", slog.Any("error", err))
			stop()
		}
	}()

	dashboardHandler := analytichttp.NewHandler(logger, service, client)
	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardHandler,
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
