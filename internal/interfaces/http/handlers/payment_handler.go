package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/interfaces/http/middleware"
	"paylane.backend/internal/interfaces/http/response"
	"paylane.backend/internal/usecases"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentUsecase *usecases.PaymentUsecase
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentUsecase *usecases.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// CreatePayment accepts a payment and enqueues settlement
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var input entities.CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	view, err := h.paymentUsecase.CreatePayment(c.Request.Context(), middleware.MerchantID(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetPayment returns a payment owned by the authenticated merchant
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	view, err := h.paymentUsecase.GetPayment(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// CapturePayment marks a successful payment as captured
// POST /api/v1/payments/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	view, err := h.paymentUsecase.CapturePayment(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ProcessCheckout is the browser-facing create endpoint, key-only auth
// POST /api/v1/checkout/process
func (h *PaymentHandler) ProcessCheckout(c *gin.Context) {
	var input entities.CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	view, err := h.paymentUsecase.CreatePayment(c.Request.Context(), middleware.MerchantID(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// CheckoutStatus is polled by the checkout page while settlement runs
// GET /api/v1/checkout/status/:id
func (h *PaymentHandler) CheckoutStatus(c *gin.Context) {
	view, err := h.paymentUsecase.GetPaymentStatus(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
