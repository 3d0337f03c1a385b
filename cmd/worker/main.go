package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/proforma-studio/engine/pkg/config"
	"github.com/proforma-studio/engine/pkg/database"
	"github.com/proforma-studio/engine/pkg/logger"

	"github.com/proforma-studio/engine/internal/queue/tasks"
	"github.com/proforma-studio/engine/internal/repository"
	"github.com/proforma-studio/engine/internal/services"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
		},
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}

	projectRepo := repository.NewProjectRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	calcSvc := services.NewCalculationService(projectRepo, scheduleRepo, services.Limits{
		MaxNodes:   cfg.CalcMaxNodes,
		MaxEdges:   cfg.CalcMaxEdges,
		TimeBudget: cfg.CalcTimeBudget,
	})

	handler := tasks.NewRecalculateTaskHandler(calcSvc)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeScheduleRecalculate, handler.HandleRecalculate)

	errCh := make(chan error, 1)
	go func() {
		log.Info("worker starting", zap.String("redis", cfg.RedisAddr), zap.Int("concurrency", cfg.AsynqConcurrency))
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Fatal("worker error", zap.Error(err))
	}

	srv.Shutdown()
	log.Info("worker exited gracefully")
}
