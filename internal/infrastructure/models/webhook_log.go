package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"paylane.backend/internal/domain/entities"
)

type WebhookLog struct {
	ID            string    `gorm:"type:varchar(32);primaryKey"`
	MerchantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Event         string    `gorm:"type:varchar(64);not null"`
	Payload       string    `gorm:"type:jsonb;not null"`
	Status        string    `gorm:"type:varchar(16);not null;default:'pending'"`
	Attempts      int       `gorm:"not null;default:0"`
	LastAttemptAt *time.Time
	ResponseCode  *int
	ResponseBody  *string `gorm:"type:text"`
	NextRetryAt   *time.Time
	CreatedAt     time.Time
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}

func (m *WebhookLog) ToEntity() *entities.WebhookLog {
	e := &entities.WebhookLog{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Event:      m.Event,
		Payload:    json.RawMessage(m.Payload),
		Status:     entities.WebhookStatus(m.Status),
		Attempts:   m.Attempts,
		CreatedAt:  m.CreatedAt,
	}
	if m.LastAttemptAt != nil {
		e.LastAttemptAt = null.TimeFrom(*m.LastAttemptAt)
	}
	if m.ResponseCode != nil {
		e.ResponseCode = null.IntFrom(*m.ResponseCode)
	}
	if m.ResponseBody != nil {
		e.ResponseBody = null.StringFrom(*m.ResponseBody)
	}
	if m.NextRetryAt != nil {
		e.NextRetryAt = null.TimeFrom(*m.NextRetryAt)
	}
	return e
}

func WebhookLogFromEntity(e *entities.WebhookLog) *WebhookLog {
	m := &WebhookLog{
		ID:         e.ID,
		MerchantID: e.MerchantID,
		Event:      e.Event,
		Payload:    string(e.Payload),
		Status:     string(e.Status),
		Attempts:   e.Attempts,
		CreatedAt:  e.CreatedAt,
	}
	if e.LastAttemptAt.Valid {
		t := e.LastAttemptAt.Time
		m.LastAttemptAt = &t
	}
	if e.ResponseCode.Valid {
		c := e.ResponseCode.Int
		m.ResponseCode = &c
	}
	if e.ResponseBody.Valid {
		b := e.ResponseBody.String
		m.ResponseBody = &b
	}
	if e.NextRetryAt.Valid {
		t := e.NextRetryAt.Time
		m.NextRetryAt = &t
	}
	return m
}
