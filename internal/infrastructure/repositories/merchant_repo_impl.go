package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/infrastructure/models"
)

// MerchantRepository implements merchant data operations
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create creates a new merchant
func (r *MerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	now := time.Now()
	merchant.CreatedAt = now
	merchant.UpdatedAt = now

	m := models.MerchantFromEntity(merchant)
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	var m models.Merchant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetByAPIKey gets a merchant by its public API key
func (r *MerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*entities.Merchant, error) {
	var m models.Merchant
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// UpdateWebhookConfig sets the webhook endpoint URL and signing secret
func (r *MerchantRepository) UpdateWebhookConfig(ctx context.Context, id uuid.UUID, url, secret string) error {
	result := r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"webhook_url":    url,
			"webhook_secret": secret,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
