package usecases

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/pkg/crypto"
	"paylane.backend/pkg/logger"
)

// SignatureHeader carries the HMAC-SHA256 hex digest of the request body
const SignatureHeader = "X-Webhook-Signature"

const webhookSecretPrefix = "whsec_"

// WebhookUsecase is the delivery engine: it signs and POSTs event
// snapshots to merchant endpoints, records every attempt, and schedules
// retries with a bounded backoff.
type WebhookUsecase struct {
	webhookLogRepo repositories.WebhookLogRepository
	merchantRepo   repositories.MerchantRepository
	queue          repositories.Queue
	httpClient     *http.Client
	cfg            config.WebhookConfig
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(
	webhookLogRepo repositories.WebhookLogRepository,
	merchantRepo repositories.MerchantRepository,
	queue repositories.Queue,
	cfg config.WebhookConfig,
) *WebhookUsecase {
	return &WebhookUsecase{
		webhookLogRepo: webhookLogRepo,
		merchantRepo:   merchantRepo,
		queue:          queue,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		cfg:            cfg,
	}
}

// Sign computes the hex HMAC-SHA256 digest of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// HandleDeliverWebhook adapts Deliver to a queue handler
func (u *WebhookUsecase) HandleDeliverWebhook(ctx context.Context, payload json.RawMessage) error {
	var job DeliverWebhookJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	return u.Deliver(ctx, job.WebhookLogID)
}

// Deliver performs one delivery attempt for the log. A 2xx response
// completes the log; anything else counts the attempt and schedules a
// retry until the attempt cap is hit. Redelivered jobs on terminal logs
// are no-ops.
func (u *WebhookUsecase) Deliver(ctx context.Context, logID string) error {
	wl, err := u.webhookLogRepo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if wl.IsTerminal() {
		return nil
	}

	merchant, err := u.merchantRepo.GetByID(ctx, wl.MerchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// The merchant row is gone; fail the log terminally instead
			// of leaving it pending forever.
			wl.Status = entities.WebhookStatusFailed
			wl.ResponseBody = null.StringFrom("Merchant no longer exists")
			wl.NextRetryAt = null.Time{}
			return u.webhookLogRepo.Update(ctx, wl)
		}
		return err
	}
	if !merchant.HasWebhookEndpoint() {
		wl.Status = entities.WebhookStatusFailed
		wl.ResponseBody = null.StringFrom("No webhook URL configured")
		wl.NextRetryAt = null.Time{}
		return u.webhookLogRepo.Update(ctx, wl)
	}

	code, body := u.attempt(ctx, merchant.WebhookURL.String, merchant.WebhookSecret, wl.Payload)

	wl.Attempts++
	wl.LastAttemptAt = null.TimeFrom(time.Now())
	wl.ResponseCode = null.IntFrom(code)
	wl.ResponseBody = null.StringFrom(truncate(body, entities.MaxResponseBodyLen))

	switch {
	case code >= 200 && code < 300:
		wl.Status = entities.WebhookStatusSuccess
		wl.NextRetryAt = null.Time{}
	case wl.Attempts >= u.cfg.MaxAttempts:
		wl.Status = entities.WebhookStatusFailed
		wl.NextRetryAt = null.Time{}
		logger.Warn(ctx, "webhook delivery exhausted",
			zap.String("webhook_log_id", wl.ID),
			zap.Int("attempts", wl.Attempts),
		)
	default:
		delay := backoffDelay(wl.Attempts, u.cfg.BackoffSchedule)
		wl.NextRetryAt = null.TimeFrom(time.Now().Add(delay))
	}

	if err := u.webhookLogRepo.Update(ctx, wl); err != nil {
		return err
	}

	if wl.Status == entities.WebhookStatusPending {
		delay := time.Until(wl.NextRetryAt.Time)
		return u.queue.EnqueueIn(ctx, repositories.JobDeliverWebhook, DeliverWebhookJob{WebhookLogID: wl.ID}, delay)
	}
	return nil
}

// attempt POSTs the signed payload. Transport-level failures report
// status code 0 with the error text as body.
func (u *WebhookUsecase) attempt(ctx context.Context, url, secret string, payload []byte) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(payload, secret))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return 0, err.Error()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, entities.MaxResponseBodyLen+1))
	if err != nil {
		return resp.StatusCode, err.Error()
	}
	return resp.StatusCode, string(body)
}

// backoffDelay returns the wait before the next attempt, indexed by the
// attempt number just completed and clamped to the schedule tail.
func backoffDelay(attempt int, schedule []time.Duration) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(schedule) {
		attempt = len(schedule) - 1
	}
	return schedule[attempt]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RetryWebhook resets a terminal log and enqueues an immediate delivery
// with a fresh attempt budget. A pending log still has a delivery chain
// in flight, so retrying it is rejected rather than interleaving two
// chains on the same log.
func (u *WebhookUsecase) RetryWebhook(ctx context.Context, merchantID uuid.UUID, id string) (*entities.WebhookLogView, error) {
	wl, err := u.webhookLogRepo.GetForMerchant(ctx, id, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Webhook log not found")
		}
		return nil, err
	}
	if !wl.IsTerminal() {
		return nil, domainerrors.InvalidState("Webhook delivery is still in progress")
	}

	if err := u.webhookLogRepo.ResetForRetry(ctx, wl.ID); err != nil {
		return nil, err
	}
	if err := u.queue.Enqueue(ctx, repositories.JobDeliverWebhook, DeliverWebhookJob{WebhookLogID: wl.ID}); err != nil {
		return nil, err
	}

	wl.Status = entities.WebhookStatusPending
	wl.Attempts = 0
	wl.NextRetryAt = null.Time{}
	return wl.PublicView(), nil
}

// ListWebhookLogs returns the merchant's delivery history, newest first
func (u *WebhookUsecase) ListWebhookLogs(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.WebhookLogView, int64, error) {
	logs, total, err := u.webhookLogRepo.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*entities.WebhookLogView, 0, len(logs))
	for _, wl := range logs {
		views = append(views, wl.PublicView())
	}
	return views, total, nil
}

// ConfigureEndpoint sets the merchant webhook URL, minting a signing
// secret on first configuration. The secret is returned only from this
// call.
func (u *WebhookUsecase) ConfigureEndpoint(ctx context.Context, merchantID uuid.UUID, input *entities.WebhookConfigInput) (string, string, error) {
	merchant, err := u.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return "", "", err
	}

	secret := merchant.WebhookSecret
	if secret == "" {
		token, err := crypto.GenerateRandomToken(24)
		if err != nil {
			return "", "", err
		}
		secret = webhookSecretPrefix + token
	}
	if err := u.merchantRepo.UpdateWebhookConfig(ctx, merchantID, input.URL, secret); err != nil {
		return "", "", err
	}
	return input.URL, secret, nil
}
