package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"paylane.backend/internal/domain/entities"
)

type Merchant struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Email         string    `gorm:"type:varchar(255);not null"`
	APIKey        string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	APISecretHash string    `gorm:"type:varchar(128);not null"`
	WebhookURL    *string   `gorm:"type:text"`
	WebhookSecret string    `gorm:"type:varchar(128)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Merchant) TableName() string {
	return "merchants"
}

func (m *Merchant) ToEntity() *entities.Merchant {
	e := &entities.Merchant{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		APIKey:        m.APIKey,
		APISecretHash: m.APISecretHash,
		WebhookSecret: m.WebhookSecret,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.WebhookURL != nil {
		e.WebhookURL = null.StringFrom(*m.WebhookURL)
	}
	return e
}

func MerchantFromEntity(e *entities.Merchant) *Merchant {
	m := &Merchant{
		ID:            e.ID,
		Name:          e.Name,
		Email:         e.Email,
		APIKey:        e.APIKey,
		APISecretHash: e.APISecretHash,
		WebhookSecret: e.WebhookSecret,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.WebhookURL.Valid {
		url := e.WebhookURL.String
		m.WebhookURL = &url
	}
	return m
}
