package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paylane.backend/internal/config"
	"paylane.backend/internal/infrastructure/queue"
	"paylane.backend/internal/infrastructure/repositories"
	"paylane.backend/internal/interfaces/http/handlers"
	"paylane.backend/internal/interfaces/http/middleware"
	"paylane.backend/internal/usecases"
	"paylane.backend/pkg/logger"
	"paylane.backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger.Init(cfg.Server.Env)
	logger.Info(context.Background(), "logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := redis.NewClient(cfg.Redis.URL, cfg.Redis.Password)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.URL(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database not available: %w", err)
	}

	// Repositories
	merchantRepo := repositories.NewMerchantRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	refundRepo := repositories.NewRefundRepository(db)
	webhookLogRepo := repositories.NewWebhookLogRepository(db)
	idempotencyRepo := repositories.NewIdempotencyRepository(db)
	jobQueue := queue.NewRedisQueue(redisClient)

	// Usecases
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, webhookLogRepo, jobQueue, cfg.Processing)
	refundUsecase := usecases.NewRefundUsecase(refundRepo, paymentRepo, webhookLogRepo, jobQueue, cfg.Processing)
	webhookUsecase := usecases.NewWebhookUsecase(webhookLogRepo, merchantRepo, jobQueue, cfg.Webhook)

	// HTTP layer
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	registerRoutes(r, routeDeps{
		paymentHandler:        handlers.NewPaymentHandler(paymentUsecase),
		refundHandler:         handlers.NewRefundHandler(refundUsecase),
		webhookHandler:        handlers.NewWebhookHandler(webhookUsecase),
		jobsHandler:           handlers.NewJobsHandler(jobQueue),
		authMiddleware:        middleware.Auth(merchantRepo),
		authPublicMiddleware:  middleware.AuthPublic(merchantRepo),
		idempotencyMiddleware: middleware.Idempotency(idempotencyRepo, redisClient),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
