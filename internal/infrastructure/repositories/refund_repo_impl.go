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

// RefundRepository implements refund data operations
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a new refund repository
func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// Create creates a new refund
func (r *RefundRepository) Create(ctx context.Context, refund *entities.Refund) error {
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = time.Now()
	}
	m := models.RefundFromEntity(refund)
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a refund by ID
func (r *RefundRepository) GetByID(ctx context.Context, id string) (*entities.Refund, error) {
	var m models.Refund
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetForMerchant gets a refund by ID scoped to a merchant
func (r *RefundRepository) GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.Refund, error) {
	var m models.Refund
	if err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// ReservedAmount sums pending and processed refund amounts for a payment
func (r *RefundRepository) ReservedAmount(ctx context.Context, paymentID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("payment_id = ? AND status IN ?", paymentID, []string{
			string(entities.RefundStatusPending),
			string(entities.RefundStatusProcessed),
		}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MarkProcessed sets the terminal refund state
func (r *RefundRepository) MarkProcessed(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entities.RefundStatusProcessed),
			"processed_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
