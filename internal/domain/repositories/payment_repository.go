package repositories

import (
	"context"

	"github.com/google/uuid"
	"paylane.backend/internal/domain/entities"
)

// PaymentRepository defines payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id string) (*entities.Payment, error)
	GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.Payment, error)
	UpdateStatus(ctx context.Context, id string, status entities.PaymentStatus) error
	SetCaptured(ctx context.Context, id string) error
}

// RefundRepository defines refund data operations
type RefundRepository interface {
	Create(ctx context.Context, refund *entities.Refund) error
	GetByID(ctx context.Context, id string) (*entities.Refund, error)
	GetForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*entities.Refund, error)
	// ReservedAmount sums amounts of refunds for the payment in status
	// pending or processed.
	ReservedAmount(ctx context.Context, paymentID string) (int64, error)
	MarkProcessed(ctx context.Context, id string) error
}
