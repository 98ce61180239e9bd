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

// WebhookLogRepository implements webhook log data operations
type WebhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository
func NewWebhookLogRepository(db *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Create creates a new webhook log
func (r *WebhookLogRepository) Create(ctx context.Context, log *entities.WebhookLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m := models.WebhookLogFromEntity(log)
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a webhook log by ID
func (r *WebhookLogRepository) GetByID(ctx context.Context, id string) (*entities.WebhookLog, error) {
	var m models.WebhookLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetForMerchant gets a webhook log by ID scoped to a merchant
func (r *WebhookLogRepository) GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.WebhookLog, error) {
	var m models.WebhookLog
	if err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// Update persists delivery attempt fields. The payload column is left
// untouched so the event snapshot cannot drift across retries.
func (r *WebhookLogRepository) Update(ctx context.Context, log *entities.WebhookLog) error {
	m := models.WebhookLogFromEntity(log)
	result := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"status":          m.Status,
			"attempts":        m.Attempts,
			"last_attempt_at": m.LastAttemptAt,
			"response_code":   m.ResponseCode,
			"response_body":   m.ResponseBody,
			"next_retry_at":   m.NextRetryAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ResetForRetry reopens a log for a fresh attempt sequence
func (r *WebhookLogRepository) ResetForRetry(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(entities.WebhookStatusPending),
			"attempts":      0,
			"next_retry_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListByMerchant lists logs for a merchant, newest first
func (r *WebhookLogRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.WebhookLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("merchant_id = ?", merchantID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WebhookLog
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]*entities.WebhookLog, 0, len(rows))
	for i := range rows {
		logs = append(logs, rows[i].ToEntity())
	}
	return logs, total, nil
}
