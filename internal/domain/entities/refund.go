package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// RefundStatus represents refund status
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
)

// Refund represents a refund against a Payment. Amounts of all refunds in
// status pending or processed for one payment never exceed the payment
// amount; enforced at creation time.
type Refund struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"paymentId"`
	MerchantID  uuid.UUID    `json:"merchantId"`
	Amount      int64        `json:"amount"`
	Reason      string       `json:"reason"`
	Status      RefundStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ProcessedAt null.Time    `json:"processedAt,omitempty"`
}

// CreateRefundInput represents input for creating a refund
type CreateRefundInput struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason,omitempty"`
}

// RefundView is the public projection of a Refund
type RefundView struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"payment_id"`
	Amount      int64        `json:"amount"`
	Reason      string       `json:"reason,omitempty"`
	Status      RefundStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

// PublicView returns the merchant-facing projection
func (r *Refund) PublicView() *RefundView {
	v := &RefundView{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		Reason:    r.Reason,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time
		v.ProcessedAt = &t
	}
	return v
}
