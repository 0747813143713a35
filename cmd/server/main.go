// Package main runs the icebreaker matching HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ai-show/backend/config"
	"github.com/ai-show/backend/internal/answers"
	"github.com/ai-show/backend/internal/auth"
	"github.com/ai-show/backend/internal/events"
	"github.com/ai-show/backend/internal/matching"
	"github.com/ai-show/backend/internal/middleware"
	"github.com/ai-show/backend/internal/participants"
	"github.com/ai-show/backend/internal/questions"
	"github.com/ai-show/backend/pkg/database"
	"github.com/ai-show/backend/pkg/queue"
	"github.com/ai-show/backend/pkg/redis"
	"github.com/ai-show/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, jwtService, cfg.Event, logger)

	// Questions
	questionRepo := questions.NewRepository(pool)
	questionHandler := questions.NewHandler(questionRepo)

	// Participants
	participantRepo := participants.NewRepository(pool)
	participantHandler := participants.NewHandler(participantRepo, eventRepo, logger)

	// Answers
	answerRepo := answers.NewRepository(pool)
	answerHandler := answers.NewHandler(answerRepo, participantRepo, questionRepo, logger)

	// Matching
	matchRepo := matching.NewRepository(pool)
	matchLock := matching.NewRedisLock(rdb.Client, time.Duration(cfg.Matching.LockTTLSeconds)*time.Second, logger)
	engine := matching.NewEngine(matchRepo, matchLock, logger)
	matchHandler := matching.NewHandler(engine, matchRepo, eventRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: event lifecycle and the survey flow
	router.POST("/events", eventHandler.Create)
	router.POST("/events/join", eventHandler.Join)
	router.POST("/events/:id/admin/login", eventHandler.AdminLogin)
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/questions", questionHandler.ListByEvent)
	router.POST("/events/:id/participants", participantHandler.Join)
	router.GET("/events/:id/participants", participantHandler.ListByEvent)
	router.POST("/participants/:id/answers", answerHandler.Submit)
	router.GET("/participants/:id/answers", answerHandler.ListByParticipant)
	router.GET("/events/:id/answers/progress", answerHandler.Progress)

	// Public: projected match results (empty until the admin reveals them)
	router.GET("/events/:id/matches", matchHandler.ListVisible)

	// Admin API (JWT scoped to the event in the path)
	admin := router.Group("")
	admin.Use(middleware.JWT(jwtService))
	{
		admin.PATCH("/events/:id", middleware.RequireEventScope(), eventHandler.Update)
		admin.GET("/events/:id/stats", middleware.RequireEventScope(), eventHandler.Stats)
		admin.PATCH("/questions/:id", questionHandler.Update)
		admin.POST("/events/:id/matches/calculate", middleware.RequireEventScope(), matchHandler.Calculate)
		admin.GET("/events/:id/matches/all", middleware.RequireEventScope(), matchHandler.ListAll)
		admin.PATCH("/events/:id/matches/visibility", middleware.RequireEventScope(), matchHandler.SetVisibility)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
