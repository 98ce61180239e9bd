package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Merchant represents a merchant entity
type Merchant struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	APIKey        string      `json:"apiKey"`
	APISecretHash string      `json:"-"`
	WebhookURL    null.String `json:"webhookUrl,omitempty"`
	WebhookSecret string      `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// HasWebhookEndpoint reports whether deliveries can be attempted at all
func (m *Merchant) HasWebhookEndpoint() bool {
	return m.WebhookURL.Valid && m.WebhookURL.String != ""
}

// WebhookConfigInput represents input for updating the webhook endpoint
type WebhookConfigInput struct {
	URL string `json:"url" binding:"required"`
}
