package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
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

// PaymentUsecase drives the payment pipeline: synchronous creation and
// capture on the API side, and the asynchronous settlement worker.
type PaymentUsecase struct {
	paymentRepo    repositories.PaymentRepository
	webhookLogRepo repositories.WebhookLogRepository
	queue          repositories.Queue
	cfg            config.ProcessingConfig
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	webhookLogRepo repositories.WebhookLogRepository,
	queue repositories.Queue,
	cfg config.ProcessingConfig,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo:    paymentRepo,
		webhookLogRepo: webhookLogRepo,
		queue:          queue,
		cfg:            cfg,
	}
}

var validMethods = map[entities.PaymentMethod]bool{
	entities.PaymentMethodCard:       true,
	entities.PaymentMethodUPI:        true,
	entities.PaymentMethodNetbanking: true,
	entities.PaymentMethodWallet:     true,
}

// CreatePayment validates the request, persists a pending Payment and
// enqueues settlement. The job is enqueued only after the row is durably
// written; the API never returns before persistence.
func (u *PaymentUsecase) CreatePayment(ctx context.Context, merchantID uuid.UUID, input *entities.CreatePaymentInput) (*entities.PaymentView, error) {
	if input.Amount <= 0 || input.Currency == "" || input.Method == "" || input.OrderID == "" {
		return nil, domainerrors.Validation("Missing required fields")
	}
	method := entities.PaymentMethod(input.Method)
	if !validMethods[method] {
		return nil, domainerrors.Validation("Unsupported payment method")
	}
	if method == entities.PaymentMethodUPI && input.VPA == "" {
		return nil, domainerrors.Validation("VPA required for UPI")
	}

	payment := &entities.Payment{
		ID:         utils.GenerateID(utils.PaymentIDPrefix),
		MerchantID: merchantID,
		OrderID:    input.OrderID,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Method:     method,
		Status:     entities.PaymentStatusPending,
	}
	if input.VPA != "" {
		payment.VPA = null.StringFrom(input.VPA)
	}

	if err := u.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if err := u.queue.Enqueue(ctx, repositories.JobProcessPayment, ProcessPaymentJob{PaymentID: payment.ID}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment created",
		zap.String("payment_id", payment.ID),
		zap.String("merchant_id", merchantID.String()),
		zap.Int64("amount", payment.Amount),
	)
	return payment.PublicView(), nil
}

// GetPayment returns the public view of a payment the merchant owns
func (u *PaymentUsecase) GetPayment(ctx context.Context, merchantID uuid.UUID, id string) (*entities.PaymentView, error) {
	payment, err := u.paymentRepo.GetForMerchant(ctx, id, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Payment not found")
		}
		return nil, err
	}
	return payment.PublicView(), nil
}

// GetPaymentStatus returns the checkout status projection
func (u *PaymentUsecase) GetPaymentStatus(ctx context.Context, merchantID uuid.UUID, id string) (*entities.PaymentStatusView, error) {
	payment, err := u.paymentRepo.GetForMerchant(ctx, id, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Payment not found")
		}
		return nil, err
	}
	return &entities.PaymentStatusView{
		Status:           payment.Status,
		ErrorCode:        payment.ErrorCode,
		ErrorDescription: payment.ErrorDescription,
	}, nil
}

// CapturePayment marks a successful payment as captured, exactly once
func (u *PaymentUsecase) CapturePayment(ctx context.Context, merchantID uuid.UUID, id string) (*entities.PaymentView, error) {
	payment, err := u.paymentRepo.GetForMerchant(ctx, id, merchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("Payment not found")
		}
		return nil, err
	}

	if payment.Status != entities.PaymentStatusSuccess {
		return nil, domainerrors.InvalidState("Payment not in capturable state")
	}
	if payment.Captured {
		return nil, domainerrors.InvalidState("Payment already captured")
	}

	if err := u.paymentRepo.SetCaptured(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrInvalidState) {
			// Lost a race with a concurrent capture
			return nil, domainerrors.InvalidState("Payment already captured")
		}
		return nil, err
	}

	payment.Captured = true
	payment.UpdatedAt = time.Now()
	return payment.PublicView(), nil
}

// HandleProcessPayment adapts ProcessPayment to a queue handler
func (u *PaymentUsecase) HandleProcessPayment(ctx context.Context, payload json.RawMessage) error {
	var job ProcessPaymentJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	return u.ProcessPayment(ctx, job.PaymentID)
}

// ProcessPayment is the settlement worker. It simulates settlement
// latency, decides the outcome, writes the terminal status and hands the
// event snapshot to the webhook delivery engine.
func (u *PaymentUsecase) ProcessPayment(ctx context.Context, paymentID string) error {
	payment, err := u.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Stale job, the record is gone
			return nil
		}
		return err
	}
	if payment.IsTerminal() {
		// Redelivered job, outcome already decided
		return nil
	}

	if err := sleepFor(ctx, u.settlementDelay()); err != nil {
		return err
	}

	status := entities.PaymentStatusFailed
	event := entities.EventPaymentFailed
	if u.decideOutcome(payment.Method) {
		status = entities.PaymentStatusSuccess
		event = entities.EventPaymentSuccess
	}

	if err := u.paymentRepo.UpdateStatus(ctx, paymentID, status); err != nil {
		return err
	}

	now := time.Now()
	payment.Status = status
	payment.UpdatedAt = now

	logger.Info(ctx, "payment settled",
		zap.String("payment_id", paymentID),
		zap.String("status", string(status)),
	)

	return enqueueWebhook(ctx, u.webhookLogRepo, u.queue, payment.MerchantID, event, now,
		map[string]interface{}{"payment": payment.PublicView()})
}

func (u *PaymentUsecase) settlementDelay() time.Duration {
	if u.cfg.TestMode {
		return u.cfg.TestDelay
	}
	return randomDelay(u.cfg.PaymentDelayMin, u.cfg.PaymentDelayMax)
}

func (u *PaymentUsecase) decideOutcome(method entities.PaymentMethod) bool {
	if u.cfg.TestMode {
		return !u.cfg.ForceFailure
	}
	if method == entities.PaymentMethodUPI {
		return rand.Float64() < u.cfg.UPISuccessRate
	}
	return rand.Float64() < u.cfg.CardSuccessRate
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// enqueueWebhook snapshots the event payload, records a pending
// WebhookLog and enqueues its delivery. The snapshot is immutable from
// here on; retries re-send the same bytes.
func enqueueWebhook(
	ctx context.Context,
	logRepo repositories.WebhookLogRepository,
	q repositories.Queue,
	merchantID uuid.UUID,
	event string,
	at time.Time,
	data map[string]interface{},
) error {
	payload, err := json.Marshal(entities.WebhookEvent{
		Event:     event,
		Timestamp: at.Unix(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	log := &entities.WebhookLog{
		ID:         utils.GenerateID(utils.WebhookLogIDPrefix),
		MerchantID: merchantID,
		Event:      event,
		Payload:    payload,
		Status:     entities.WebhookStatusPending,
	}
	if err := logRepo.Create(ctx, log); err != nil {
		return err
	}

	return q.Enqueue(ctx, repositories.JobDeliverWebhook, DeliverWebhookJob{WebhookLogID: log.ID})
}
