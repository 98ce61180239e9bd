package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"paylane.backend/internal/domain/entities"
)

type Payment struct {
	ID               string    `gorm:"type:varchar(32);primaryKey"`
	MerchantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID          string    `gorm:"type:varchar(64);not null"`
	Amount           int64     `gorm:"not null"`
	Currency         string    `gorm:"type:varchar(8);not null"`
	Method           string    `gorm:"type:varchar(16);not null"`
	VPA              *string   `gorm:"type:varchar(255)"`
	Status           string    `gorm:"type:varchar(16);not null;default:'pending'"`
	Captured         bool      `gorm:"not null;default:false"`
	ErrorCode        *string   `gorm:"type:varchar(64)"`
	ErrorDescription *string   `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Payment) TableName() string {
	return "payments"
}

func (m *Payment) ToEntity() *entities.Payment {
	e := &entities.Payment{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		OrderID:    m.OrderID,
		Amount:     m.Amount,
		Currency:   m.Currency,
		Method:     entities.PaymentMethod(m.Method),
		Status:     entities.PaymentStatus(m.Status),
		Captured:   m.Captured,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.VPA != nil {
		e.VPA = null.StringFrom(*m.VPA)
	}
	if m.ErrorCode != nil {
		e.ErrorCode = null.StringFrom(*m.ErrorCode)
	}
	if m.ErrorDescription != nil {
		e.ErrorDescription = null.StringFrom(*m.ErrorDescription)
	}
	return e
}

func PaymentFromEntity(e *entities.Payment) *Payment {
	m := &Payment{
		ID:         e.ID,
		MerchantID: e.MerchantID,
		OrderID:    e.OrderID,
		Amount:     e.Amount,
		Currency:   e.Currency,
		Method:     string(e.Method),
		Status:     string(e.Status),
		Captured:   e.Captured,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.VPA.Valid {
		vpa := e.VPA.String
		m.VPA = &vpa
	}
	if e.ErrorCode.Valid {
		code := e.ErrorCode.String
		m.ErrorCode = &code
	}
	if e.ErrorDescription.Valid {
		desc := e.ErrorDescription.String
		m.ErrorDescription = &desc
	}
	return m
}
