package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// WebhookStatus represents delivery state of a webhook log
type WebhookStatus string

const (
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// Webhook event tags
const (
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

// MaxResponseBodyLen bounds the stored endpoint response text
const MaxResponseBodyLen = 1000

// WebhookLog is the persistent record of one notification event and its
// delivery attempt history. Payload is an immutable snapshot taken when the
// event occurred; retries re-send the same bytes. ResponseCode 0 signals a
// transport-level failure (timeout, DNS, connection refused).
type WebhookLog struct {
	ID            string          `json:"id"`
	MerchantID    uuid.UUID       `json:"merchantId"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        WebhookStatus   `json:"status"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt null.Time       `json:"lastAttemptAt,omitempty"`
	ResponseCode  null.Int        `json:"responseCode,omitempty"`
	ResponseBody  null.String     `json:"responseBody,omitempty"`
	NextRetryAt   null.Time       `json:"nextRetryAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IsTerminal reports whether the delivery engine is done with this log
func (w *WebhookLog) IsTerminal() bool {
	return w.Status == WebhookStatusSuccess || w.Status == WebhookStatusFailed
}

// WebhookEvent is the wire shape POSTed to merchant endpoints
type WebhookEvent struct {
	Event     string                 `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// WebhookLogView is the merchant-facing projection of a WebhookLog
type WebhookLogView struct {
	ID            string          `json:"id"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        WebhookStatus   `json:"status"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	ResponseCode  *int            `json:"response_code,omitempty"`
	ResponseBody  string          `json:"response_body,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PublicView returns the merchant-facing projection
func (w *WebhookLog) PublicView() *WebhookLogView {
	v := &WebhookLogView{
		ID:           w.ID,
		Event:        w.Event,
		Payload:      w.Payload,
		Status:       w.Status,
		Attempts:     w.Attempts,
		ResponseBody: w.ResponseBody.String,
		CreatedAt:    w.CreatedAt,
	}
	if w.LastAttemptAt.Valid {
		t := w.LastAttemptAt.Time
		v.LastAttemptAt = &t
	}
	if w.ResponseCode.Valid {
		c := w.ResponseCode.Int
		v.ResponseCode = &c
	}
	if w.NextRetryAt.Valid {
		t := w.NextRetryAt.Time
		v.NextRetryAt = &t
	}
	return v
}
