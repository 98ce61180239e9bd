package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/pkg/logger"
	"paylane.backend/pkg/utils"
)

// RefundUsecase drives the refund pipeline: synchronous creation with
// over-refund protection, and the asynchronous processing worker.
type RefundUsecase struct {
	refundRepo     repositories.RefundRepository
	paymentRepo    repositories.PaymentRepository
	webhookLogRepo repositories.WebhookLogRepository
	queue          repositories.Queue
	cfg            config.ProcessingConfig
}

// NewRefundUsecase creates a new refund usecase
func NewRefundUsecase(
	refundRepo repositories.RefundRepository,
	paymentRepo repositories.PaymentRepository,
	webhookLogRepo repositories.WebhookLogRepository,
	queue repositories.Queue,
	cfg config.ProcessingConfig,
) *RefundUsecase {
	return &RefundUsecase{
		refundRepo:     refundRepo,
		paymentRepo:    paymentRepo,
		webhookLogRepo: webhookLogRepo,
		queue:          queue,
		cfg:            cfg,
	}
}

// CreateRefund validates the payment state and the available amount,
// persists a pending refund and enqueues processing. Pending refunds
// count against the available amount so the reservation holds even while
// the worker is behind.
func (u *RefundUsecase) CreateRefund(ctx context.Context, merchantID uuid.UUID, paymentID string, input *entities.CreateRefundInput) (*entities.RefundView, error) {
	if input.Amount <= 0 {
		return nil, domainerrors.Validation("Refund amount must be positive")
	}

	payment, err := u.paymentRepo.GetForMerchant(ctx, paymentID, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Payment not found")
		}
		return nil, err
	}
	if !payment.CanRefund() {
		return nil, domainerrors.InvalidState("Payment not in refundable state")
	}

	reserved, err := u.refundRepo.ReservedAmount(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if input.Amount > payment.Amount-reserved {
		return nil, domainerrors.Validation("Refund amount exceeds available amount")
	}

	refund := &entities.Refund{
		ID:         utils.GenerateID(utils.RefundIDPrefix),
		PaymentID:  paymentID,
		MerchantID: merchantID,
		Amount:     input.Amount,
		Reason:     input.Reason,
		Status:     entities.RefundStatusPending,
	}
	if err := u.refundRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	if err := u.queue.Enqueue(ctx, repositories.JobProcessRefund, ProcessRefundJob{RefundID: refund.ID}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", refund.Amount),
	)
	return refund.PublicView(), nil
}

// GetRefund returns the public view of a refund the merchant owns
func (u *RefundUsecase) GetRefund(ctx context.Context, merchantID uuid.UUID, id string) (*entities.RefundView, error) {
	refund, err := u.refundRepo.GetForMerchant(ctx, id, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Refund not found")
		}
		return nil, err
	}
	return refund.PublicView(), nil
}

// HandleProcessRefund adapts ProcessRefund to a queue handler
func (u *RefundUsecase) HandleProcessRefund(ctx context.Context, payload json.RawMessage) error {
	var job ProcessRefundJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	return u.ProcessRefund(ctx, job.RefundID)
}

// ProcessRefund is the refund worker. Refund execution always succeeds
// once the reservation was accepted, so the only transition here is
// pending to processed.
func (u *RefundUsecase) ProcessRefund(ctx context.Context, refundID string) error {
	refund, err := u.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if refund.Status == entities.RefundStatusProcessed {
		return nil
	}

	if err := sleepFor(ctx, u.processingDelay()); err != nil {
		return err
	}

	if err := u.refundRepo.MarkProcessed(ctx, refundID); err != nil {
		return err
	}

	now := time.Now()
	refund.Status = entities.RefundStatusProcessed
	refund.ProcessedAt = null.TimeFrom(now)

	logger.Info(ctx, "refund processed",
		zap.String("refund_id", refundID),
		zap.String("payment_id", refund.PaymentID),
	)

	return enqueueWebhook(ctx, u.webhookLogRepo, u.queue, refund.MerchantID, entities.EventRefundProcessed, now,
		map[string]interface{}{"refund": refund.PublicView()})
}

func (u *RefundUsecase) processingDelay() time.Duration {
	if u.cfg.TestMode {
		return u.cfg.TestDelay
	}
	return randomDelay(u.cfg.RefundDelayMin, u.cfg.RefundDelayMax)
}
