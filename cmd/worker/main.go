// Package main runs the background worker (event expiry sweep, match reconciliation).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ai-show/backend/config"
	"github.com/ai-show/backend/internal/events"
	"github.com/ai-show/backend/internal/matching"
	"github.com/ai-show/backend/internal/worker"
	"github.com/ai-show/backend/pkg/database"
	"github.com/ai-show/backend/pkg/queue"
	"github.com/ai-show/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	eventRepo := events.NewRepository(pool)
	matchRepo := matching.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	sweeper := worker.NewSweeper(eventRepo, time.Duration(cfg.Event.SweepIntervalSeconds)*time.Second, logger)
	reconciler := worker.NewReconciler(matchRepo, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Run(workerCtx)
	go reconciler.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
