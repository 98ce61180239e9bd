package repositories

import (
	"context"

	"github.com/google/uuid"
	"paylane.backend/internal/domain/entities"
)

// IdempotencyRepository defines idempotency record operations.
// Create must fail with errors.ErrAlreadyExists when (key, merchant_id)
// already holds an unexpired record, so racing identical requests collapse
// onto one stored response.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string, merchantID uuid.UUID) (*entities.IdempotencyKey, error)
	Create(ctx context.Context, record *entities.IdempotencyKey) error
	Delete(ctx context.Context, key string, merchantID uuid.UUID) error
}
