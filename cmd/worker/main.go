package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/internal/infrastructure/queue"
	infrarepos "paylane.backend/internal/infrastructure/repositories"
	"paylane.backend/internal/usecases"
	"paylane.backend/pkg/logger"
	"paylane.backend/pkg/redis"
)

const consumerConcurrency = 5

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

	merchantRepo := infrarepos.NewMerchantRepository(db)
	paymentRepo := infrarepos.NewPaymentRepository(db)
	refundRepo := infrarepos.NewRefundRepository(db)
	webhookLogRepo := infrarepos.NewWebhookLogRepository(db)
	jobQueue := queue.NewRedisQueue(redisClient)

	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, webhookLogRepo, jobQueue, cfg.Processing)
	refundUsecase := usecases.NewRefundUsecase(refundRepo, paymentRepo, webhookLogRepo, jobQueue, cfg.Processing)
	webhookUsecase := usecases.NewWebhookUsecase(webhookLogRepo, merchantRepo, jobQueue, cfg.Webhook)

	consumer := queue.NewConsumer(redisClient, consumerConcurrency)
	consumer.Register(repositories.JobProcessPayment, paymentUsecase.HandleProcessPayment)
	consumer.Register(repositories.JobProcessRefund, refundUsecase.HandleProcessRefund)
	consumer.Register(repositories.JobDeliverWebhook, webhookUsecase.HandleDeliverWebhook)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "worker started", zap.Int("concurrency", consumerConcurrency))
	consumer.Start(ctx)

	<-ctx.Done()
	logger.Info(context.Background(), "worker shutting down")
	consumer.Wait()
	return nil
}
