package models

import (
	"time"

	"github.com/google/uuid"
	"paylane.backend/internal/domain/entities"
)

type IdempotencyKey struct {
	Key        string    `gorm:"type:varchar(128);primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Response   []byte    `gorm:"type:bytea;not null"`
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"not null;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

func (m *IdempotencyKey) ToEntity() *entities.IdempotencyKey {
	return &entities.IdempotencyKey{
		Key:        m.Key,
		MerchantID: m.MerchantID,
		Response:   m.Response,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
	}
}

func IdempotencyKeyFromEntity(e *entities.IdempotencyKey) *IdempotencyKey {
	return &IdempotencyKey{
		Key:        e.Key,
		MerchantID: e.MerchantID,
		Response:   e.Response,
		CreatedAt:  e.CreatedAt,
		ExpiresAt:  e.ExpiresAt,
	}
}
