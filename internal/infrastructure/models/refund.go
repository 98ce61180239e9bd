package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"paylane.backend/internal/domain/entities"
)

type Refund struct {
	ID          string    `gorm:"type:varchar(32);primaryKey"`
	PaymentID   string    `gorm:"type:varchar(32);not null;index"`
	MerchantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount      int64     `gorm:"not null"`
	Reason      string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (Refund) TableName() string {
	return "refunds"
}

func (m *Refund) ToEntity() *entities.Refund {
	e := &entities.Refund{
		ID:         m.ID,
		PaymentID:  m.PaymentID,
		MerchantID: m.MerchantID,
		Amount:     m.Amount,
		Reason:     m.Reason,
		Status:     entities.RefundStatus(m.Status),
		CreatedAt:  m.CreatedAt,
	}
	if m.ProcessedAt != nil {
		e.ProcessedAt = null.TimeFrom(*m.ProcessedAt)
	}
	return e
}

func RefundFromEntity(e *entities.Refund) *Refund {
	m := &Refund{
		ID:         e.ID,
		PaymentID:  e.PaymentID,
		MerchantID: e.MerchantID,
		Amount:     e.Amount,
		Reason:     e.Reason,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
	}
	if e.ProcessedAt.Valid {
		t := e.ProcessedAt.Time
		m.ProcessedAt = &t
	}
	return m
}
