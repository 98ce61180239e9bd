package repositories

import (
	"context"
	"time"
)

// Job kinds carried on the durable queue
const (
	JobProcessPayment = "process-payment"
	JobProcessRefund  = "process-refund"
	JobDeliverWebhook = "deliver-webhook"
)

// QueueCounts is the health probe snapshot of the queue
type QueueCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Queue is a durable at-least-once job store. Jobs carry entity ids only,
// never inline mutable state; consumers re-read current state so redelivery
// is safe. EnqueueIn schedules delivery after the given delay.
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload interface{}) error
	EnqueueIn(ctx context.Context, kind string, payload interface{}, delay time.Duration) error
	Counts(ctx context.Context) (*QueueCounts, error)
}
