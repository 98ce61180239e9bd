package repositories

import (
	"context"

	"github.com/google/uuid"
	"paylane.backend/internal/domain/entities"
)

// MerchantRepository defines merchant data operations
type MerchantRepository interface {
	Create(ctx context.Context, merchant *entities.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*entities.Merchant, error)
	UpdateWebhookConfig(ctx context.Context, id uuid.UUID, url, secret string) error
}
