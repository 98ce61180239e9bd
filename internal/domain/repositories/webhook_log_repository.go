package repositories

import (
	"context"

	"github.com/google/uuid"
	"paylane.backend/internal/domain/entities"
)

// WebhookLogRepository defines webhook log data operations
type WebhookLogRepository interface {
	Create(ctx context.Context, log *entities.WebhookLog) error
	GetByID(ctx context.Context, id string) (*entities.WebhookLog, error)
	GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.WebhookLog, error)
	// Update persists the delivery attempt fields (attempts, status,
	// last_attempt_at, response_code, response_body, next_retry_at).
	// The payload is never rewritten.
	Update(ctx context.Context, log *entities.WebhookLog) error
	// ResetForRetry puts the log back into pending with attempts=0 and
	// next_retry_at cleared, keeping id and payload.
	ResetForRetry(ctx context.Context, id string) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.WebhookLog, int64, error)
}
