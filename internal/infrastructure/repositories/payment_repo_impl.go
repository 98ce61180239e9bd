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

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	now := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = payment.CreatedAt

	m := models.PaymentFromEntity(payment)
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	var m models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetForMerchant gets a payment by ID scoped to a merchant
func (r *PaymentRepository) GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.Payment, error) {
	var m models.Payment
	if err := r.db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// UpdateStatus writes the terminal outcome decided by the worker
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status entities.PaymentStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetCaptured marks a payment as captured
func (r *PaymentRepository) SetCaptured(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ? AND captured = ?", id, string(entities.PaymentStatusSuccess), false).
		Updates(map[string]interface{}{
			"captured":   true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidState
	}
	return nil
}
