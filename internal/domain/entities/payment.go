package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentMethod represents the payment instrument
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

// Payment represents a payment entity. Amount is in integer minor units.
// Status is mutated only by the processing worker; Captured only by the
// capture operation, and only once Status is success.
type Payment struct {
	ID               string        `json:"id"`
	MerchantID       uuid.UUID     `json:"merchantId"`
	OrderID          string        `json:"orderId"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Method           PaymentMethod `json:"method"`
	VPA              null.String   `json:"vpa,omitempty"`
	Status           PaymentStatus `json:"status"`
	Captured         bool          `json:"captured"`
	ErrorCode        null.String   `json:"errorCode,omitempty"`
	ErrorDescription null.String   `json:"errorDescription,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// IsTerminal reports whether the worker has decided an outcome
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}

// CanCapture reports whether the capture operation is valid
func (p *Payment) CanCapture() bool {
	return p.Status == PaymentStatusSuccess && !p.Captured
}

// CanRefund reports whether refunds may be created against this payment
func (p *Payment) CanRefund() bool {
	return p.Status == PaymentStatusSuccess
}

// CreatePaymentInput represents input for creating a payment
type CreatePaymentInput struct {
	OrderID  string `json:"order_id" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required"`
	Method   string `json:"method" binding:"required"`
	VPA      string `json:"vpa,omitempty"`
}

// PaymentView is the public projection of a Payment returned by the API
// and snapshotted into webhook payloads. No internal fields.
type PaymentView struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"order_id"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Method    PaymentMethod `json:"method"`
	VPA       string        `json:"vpa,omitempty"`
	Status    PaymentStatus `json:"status"`
	Captured  bool          `json:"captured"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PublicView returns the merchant-facing projection
func (p *Payment) PublicView() *PaymentView {
	return &PaymentView{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Method:    p.Method,
		VPA:       p.VPA.String,
		Status:    p.Status,
		Captured:  p.Captured,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PaymentStatusView is the checkout status projection
type PaymentStatusView struct {
	Status           PaymentStatus `json:"status"`
	ErrorCode        null.String   `json:"error_code"`
	ErrorDescription null.String   `json:"error_description"`
}
