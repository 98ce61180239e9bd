package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/entities"
	"paylane.backend/internal/infrastructure/queue"
	"paylane.backend/internal/infrastructure/repositories"
	"paylane.backend/internal/interfaces/http/handlers"
	"paylane.backend/internal/interfaces/http/middleware"
	"paylane.backend/internal/usecases"
	"paylane.backend/pkg/crypto"
	"paylane.backend/pkg/utils"
)

const testAPISecret = "secret-for-tests"

type testStack struct {
	router      *gin.Engine
	db          *gorm.DB
	redisClient *goredis.Client
	mr          *miniredis.Miniredis
	queue       *queue.RedisQueue
	consumer    *queue.Consumer

	merchant *entities.Merchant

	merchantRepo   *repositories.MerchantRepository
	paymentRepo    *repositories.PaymentRepository
	webhookLogRepo *repositories.WebhookLogRepository
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	createTables(t, db)

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	merchantRepo := repositories.NewMerchantRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	refundRepo := repositories.NewRefundRepository(db)
	webhookLogRepo := repositories.NewWebhookLogRepository(db)
	idempotencyRepo := repositories.NewIdempotencyRepository(db)
	jobQueue := queue.NewRedisQueue(redisClient)

	processingCfg := config.ProcessingConfig{
		TestMode:  true,
		TestDelay: 5 * time.Millisecond,
	}
	webhookCfg := config.WebhookConfig{
		Timeout:         2 * time.Second,
		MaxAttempts:     5,
		BackoffSchedule: config.TestBackoffSchedule,
	}

	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, webhookLogRepo, jobQueue, processingCfg)
	refundUsecase := usecases.NewRefundUsecase(refundRepo, paymentRepo, webhookLogRepo, jobQueue, processingCfg)
	webhookUsecase := usecases.NewWebhookUsecase(webhookLogRepo, merchantRepo, jobQueue, webhookCfg)

	paymentHandler := handlers.NewPaymentHandler(paymentUsecase)
	refundHandler := handlers.NewRefundHandler(refundUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase)
	jobsHandler := handlers.NewJobsHandler(jobQueue)

	auth := middleware.Auth(merchantRepo)
	authPublic := middleware.AuthPublic(merchantRepo)
	idem := middleware.Idempotency(idempotencyRepo, redisClient)

	r := gin.New()
	r.Use(middleware.RequestID())
	v1 := r.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		payments.Use(auth)
		{
			payments.POST("", idem, paymentHandler.CreatePayment)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.POST("/:id/capture", paymentHandler.CapturePayment)
			payments.POST("/:id/refunds", refundHandler.CreateRefund)
		}
		refunds := v1.Group("/refunds")
		refunds.Use(auth)
		{
			refunds.GET("/:id", refundHandler.GetRefund)
		}
		webhooks := v1.Group("/webhooks")
		webhooks.Use(auth)
		{
			webhooks.GET("", webhookHandler.ListWebhookLogs)
			webhooks.POST("/:id/retry", webhookHandler.RetryWebhook)
			webhooks.POST("/config", webhookHandler.ConfigureWebhook)
		}
		checkout := v1.Group("/checkout")
		checkout.Use(authPublic)
		{
			checkout.POST("/process", paymentHandler.ProcessCheckout)
			checkout.GET("/status/:id", paymentHandler.CheckoutStatus)
		}
		jobs := v1.Group("/jobs")
		jobs.Use(auth)
		{
			jobs.GET("/status", jobsHandler.Status)
		}
	}

	consumer := queue.NewConsumer(redisClient, 2)
	consumer.Register("process-payment", paymentUsecase.HandleProcessPayment)
	consumer.Register("process-refund", refundUsecase.HandleProcessRefund)
	consumer.Register("deliver-webhook", webhookUsecase.HandleDeliverWebhook)

	s := &testStack{
		router:         r,
		db:             db,
		redisClient:    redisClient,
		mr:             mr,
		queue:          jobQueue,
		consumer:       consumer,
		merchantRepo:   merchantRepo,
		paymentRepo:    paymentRepo,
		webhookLogRepo: webhookLogRepo,
	}
	s.merchant = s.createMerchant(t, "Acme", "ops@acme.test")
	return s
}

func createTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, q := range []string{
		`CREATE TABLE merchants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			api_key TEXT NOT NULL UNIQUE,
			api_secret_hash TEXT NOT NULL,
			webhook_url TEXT,
			webhook_secret TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE payments (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			method TEXT NOT NULL,
			vpa TEXT,
			status TEXT NOT NULL,
			captured BOOLEAN NOT NULL DEFAULT 0,
			error_code TEXT,
			error_description TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE refunds (
			id TEXT PRIMARY KEY,
			payment_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			reason TEXT,
			status TEXT NOT NULL,
			created_at DATETIME,
			processed_at DATETIME
		);`,
		`CREATE TABLE webhook_logs (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			event TEXT NOT NULL,
			payload TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_attempt_at DATETIME,
			response_code INTEGER,
			response_body TEXT,
			next_retry_at DATETIME,
			created_at DATETIME
		);`,
		`CREATE TABLE idempotency_keys (
			key TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			response BLOB NOT NULL,
			created_at DATETIME,
			expires_at DATETIME NOT NULL,
			PRIMARY KEY (key, merchant_id)
		);`,
	} {
		require.NoError(t, db.Exec(q).Error)
	}
}

func (s *testStack) createMerchant(t *testing.T, name, email string) *entities.Merchant {
	t.Helper()
	hash, err := crypto.HashSecret(testAPISecret)
	require.NoError(t, err)
	merchant := &entities.Merchant{
		Name:          name,
		Email:         email,
		APIKey:        utils.GenerateID(utils.APIKeyPrefix),
		APISecretHash: hash,
	}
	require.NoError(t, s.merchantRepo.Create(context.Background(), merchant))
	return merchant
}

type reqOpts struct {
	apiKey         string
	apiSecret      string
	idempotencyKey string
}

func (s *testStack) do(t *testing.T, method, path string, body interface{}, opts reqOpts) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("X-API-Key", opts.apiKey)
	}
	if opts.apiSecret != "" {
		req.Header.Set("X-API-Secret", opts.apiSecret)
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testStack) authed(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, body, reqOpts{apiKey: s.merchant.APIKey, apiSecret: testAPISecret})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
