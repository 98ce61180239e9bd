package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/infrastructure/models"
)

// IdempotencyRepository implements idempotency record operations on the
// composite (key, merchant_id) primary key.
type IdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Get gets a record by token and merchant
func (r *IdempotencyRepository) Get(ctx context.Context, key string, merchantID uuid.UUID) (*entities.IdempotencyKey, error) {
	var m models.IdempotencyKey
	if err := r.db.WithContext(ctx).Where("key = ? AND merchant_id = ?", key, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// Create inserts a record; a concurrent duplicate insert surfaces as
// ErrAlreadyExists so the caller can fall back to the stored response.
func (r *IdempotencyRepository) Create(ctx context.Context, record *entities.IdempotencyKey) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	m := models.IdempotencyKeyFromEntity(record)
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil && isDuplicateKeyError(err) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

// Delete removes a record (used to purge expired entries lazily)
func (r *IdempotencyRepository) Delete(ctx context.Context, key string, merchantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("key = ? AND merchant_id = ?", key, merchantID).
		Delete(&models.IdempotencyKey{}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// postgres and sqlite drivers do not always translate
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
