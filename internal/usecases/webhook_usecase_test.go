package usecases_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/internal/usecases"
)

func testWebhookConfig() config.WebhookConfig {
	return config.WebhookConfig{
		Timeout:         2 * time.Second,
		MaxAttempts:     5,
		BackoffSchedule: config.TestBackoffSchedule,
	}
}

func newWebhookUsecase() (*usecases.WebhookUsecase, *MockWebhookLogRepository, *MockMerchantRepository, *MockQueue) {
	logRepo := new(MockWebhookLogRepository)
	merchantRepo := new(MockMerchantRepository)
	queue := new(MockQueue)
	uc := usecases.NewWebhookUsecase(logRepo, merchantRepo, queue, testWebhookConfig())
	return uc, logRepo, merchantRepo, queue
}

func testMerchant(url string) *entities.Merchant {
	return &entities.Merchant{
		ID:            uuid.New(),
		Name:          "Acme",
		Email:         "ops@acme.test",
		WebhookURL:    null.StringFrom(url),
		WebhookSecret: "whsec_testsecret",
	}
}

func pendingLog(merchantID uuid.UUID, attempts int) *entities.WebhookLog {
	payload, _ := json.Marshal(entities.WebhookEvent{
		Event:     entities.EventPaymentSuccess,
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"payment": map[string]interface{}{"id": "pay_abc"}},
	})
	return &entities.WebhookLog{
		ID:         "wh_abc",
		MerchantID: merchantID,
		Event:      entities.EventPaymentSuccess,
		Payload:    payload,
		Status:     entities.WebhookStatusPending,
		Attempts:   attempts,
	}
}

func TestDeliver_SuccessSignsAndCompletes(t *testing.T) {
	var gotSig, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Webhook-Signature")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchant := testMerchant(server.URL)
	wl := pendingLog(merchant.ID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	mac := hmac.New(sha256.New, []byte(merchant.WebhookSecret))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, string(wl.Payload), string(gotBody))

	assert.Equal(t, entities.WebhookStatusSuccess, wl.Status)
	assert.Equal(t, 1, wl.Attempts)
	assert.Equal(t, 200, wl.ResponseCode.Int)
	assert.Equal(t, `{"received":true}`, wl.ResponseBody.String)
	assert.True(t, wl.LastAttemptAt.Valid)
	assert.False(t, wl.NextRetryAt.Valid)
	queue.AssertNotCalled(t, "EnqueueIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliver_Non2xxSchedulesRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer server.Close()

	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchant := testMerchant(server.URL)
	wl := pendingLog(merchant.ID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)
	queue.On("EnqueueIn", ctx, repositories.JobDeliverWebhook, mock.Anything, mock.MatchedBy(func(d time.Duration) bool {
		// schedule entry for one completed attempt is 5s
		return d > 4*time.Second && d <= 5*time.Second
	})).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	assert.Equal(t, entities.WebhookStatusPending, wl.Status)
	assert.Equal(t, 1, wl.Attempts)
	assert.Equal(t, 502, wl.ResponseCode.Int)
	assert.True(t, wl.NextRetryAt.Valid)
	queue.AssertExpectations(t)
}

func TestDeliver_TransportFailureRecordsZeroCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchant := testMerchant(url)
	wl := pendingLog(merchant.ID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)
	queue.On("EnqueueIn", ctx, repositories.JobDeliverWebhook, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	assert.Equal(t, 0, wl.ResponseCode.Int)
	assert.NotEmpty(t, wl.ResponseBody.String)
	assert.Equal(t, entities.WebhookStatusPending, wl.Status)
}

func TestDeliver_ExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchant := testMerchant(server.URL)
	wl := pendingLog(merchant.ID, 4)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	assert.Equal(t, entities.WebhookStatusFailed, wl.Status)
	assert.Equal(t, 5, wl.Attempts)
	assert.False(t, wl.NextRetryAt.Valid)
	queue.AssertNotCalled(t, "EnqueueIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliver_NoEndpointFailsImmediately(t *testing.T) {
	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchant := &entities.Merchant{ID: uuid.New(), WebhookSecret: "whsec_testsecret"}
	wl := pendingLog(merchant.ID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	assert.Equal(t, entities.WebhookStatusFailed, wl.Status)
	assert.Equal(t, "No webhook URL configured", wl.ResponseBody.String)
	assert.Zero(t, wl.Attempts)
	queue.AssertNotCalled(t, "EnqueueIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliver_TerminalLogIsNoop(t *testing.T) {
	uc, logRepo, merchantRepo, _ := newWebhookUsecase()
	ctx := context.Background()

	wl := pendingLog(uuid.New(), 1)
	wl.Status = entities.WebhookStatusSuccess
	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))
	merchantRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	logRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeliver_MissingLogIsNoop(t *testing.T) {
	uc, logRepo, _, _ := newWebhookUsecase()
	ctx := context.Background()

	logRepo.On("GetByID", ctx, "wh_gone").Return(nil, domainerrors.ErrNotFound)
	require.NoError(t, uc.Deliver(ctx, "wh_gone"))
}

func TestDeliver_TruncatesResponseBody(t *testing.T) {
	long := strings.Repeat("x", 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(long))
	}))
	defer server.Close()

	uc, logRepo, merchantRepo, _ := newWebhookUsecase()
	ctx := context.Background()
	merchant := testMerchant(server.URL)
	wl := pendingLog(merchant.ID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchant.ID).Return(merchant, nil)
	logRepo.On("Update", ctx, wl).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))
	assert.Len(t, wl.ResponseBody.String, entities.MaxResponseBodyLen)
}

func TestDeliver_MissingMerchantFailsLog(t *testing.T) {
	uc, logRepo, merchantRepo, queue := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()
	wl := pendingLog(merchantID, 0)

	logRepo.On("GetByID", ctx, "wh_abc").Return(wl, nil)
	merchantRepo.On("GetByID", ctx, merchantID).Return(nil, domainerrors.ErrNotFound)
	logRepo.On("Update", ctx, wl).Return(nil)

	require.NoError(t, uc.Deliver(ctx, "wh_abc"))

	assert.Equal(t, entities.WebhookStatusFailed, wl.Status)
	assert.Equal(t, "Merchant no longer exists", wl.ResponseBody.String)
	assert.Zero(t, wl.Attempts)
	queue.AssertNotCalled(t, "EnqueueIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryWebhook_ResetsAndEnqueues(t *testing.T) {
	uc, logRepo, _, queue := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()

	wl := pendingLog(merchantID, 5)
	wl.Status = entities.WebhookStatusFailed
	logRepo.On("GetForMerchant", ctx, "wh_abc", merchantID).Return(wl, nil)
	logRepo.On("ResetForRetry", ctx, "wh_abc").Return(nil)
	queue.On("Enqueue", ctx, repositories.JobDeliverWebhook, mock.Anything).Return(nil)

	view, err := uc.RetryWebhook(ctx, merchantID, "wh_abc")
	require.NoError(t, err)
	assert.Equal(t, entities.WebhookStatusPending, view.Status)
	assert.Zero(t, view.Attempts)
	queue.AssertExpectations(t)
}

func TestRetryWebhook_NotFound(t *testing.T) {
	uc, logRepo, _, _ := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()

	logRepo.On("GetForMerchant", ctx, "wh_gone", merchantID).Return(nil, domainerrors.ErrNotFound)

	_, err := uc.RetryWebhook(ctx, merchantID, "wh_gone")
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

func TestRetryWebhook_RejectsInFlightLog(t *testing.T) {
	uc, logRepo, _, queue := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()

	wl := pendingLog(merchantID, 2)
	logRepo.On("GetForMerchant", ctx, "wh_abc", merchantID).Return(wl, nil)

	_, err := uc.RetryWebhook(ctx, merchantID, "wh_abc")
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
	logRepo.AssertNotCalled(t, "ResetForRetry", mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfigureEndpoint_MintsSecretOnce(t *testing.T) {
	uc, _, merchantRepo, _ := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()

	merchantRepo.On("GetByID", ctx, merchantID).Return(&entities.Merchant{ID: merchantID}, nil)
	merchantRepo.On("UpdateWebhookConfig", ctx, merchantID, "https://acme.test/hooks", mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "whsec_")
	})).Return(nil)

	url, secret, err := uc.ConfigureEndpoint(ctx, merchantID, &entities.WebhookConfigInput{URL: "https://acme.test/hooks"})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test/hooks", url)
	assert.True(t, strings.HasPrefix(secret, "whsec_"))
}

func TestConfigureEndpoint_KeepsExistingSecret(t *testing.T) {
	uc, _, merchantRepo, _ := newWebhookUsecase()
	ctx := context.Background()
	merchantID := uuid.New()

	merchant := &entities.Merchant{ID: merchantID, WebhookSecret: "whsec_existing"}
	merchantRepo.On("GetByID", ctx, merchantID).Return(merchant, nil)
	merchantRepo.On("UpdateWebhookConfig", ctx, merchantID, "https://acme.test/v2", "whsec_existing").Return(nil)

	_, secret, err := uc.ConfigureEndpoint(ctx, merchantID, &entities.WebhookConfigInput{URL: "https://acme.test/v2"})
	require.NoError(t, err)
	assert.Equal(t, "whsec_existing", secret)
}

func TestSign_Deterministic(t *testing.T) {
	payload := []byte(`{"event":"payment.success"}`)
	sig := usecases.Sign(payload, "whsec_testsecret")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, usecases.Sign(payload, "whsec_testsecret"))
	assert.NotEqual(t, sig, usecases.Sign(payload, "whsec_other"))
}
