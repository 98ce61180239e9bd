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

// RefundHandler handles refund endpoints
type RefundHandler struct {
	refundUsecase *usecases.RefundUsecase
}

// NewRefundHandler creates a new refund handler
func NewRefundHandler(refundUsecase *usecases.RefundUsecase) *RefundHandler {
	return &RefundHandler{refundUsecase: refundUsecase}
}

// CreateRefund creates a refund against a captured-or-settled payment
// POST /api/v1/payments/:id/refunds
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	var input entities.CreateRefundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	view, err := h.refundUsecase.CreateRefund(c.Request.Context(), middleware.MerchantID(c), c.Param("id"), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetRefund returns a refund owned by the authenticated merchant
// GET /api/v1/refunds/:id
func (h *RefundHandler) GetRefund(c *gin.Context) {
	view, err := h.refundUsecase.GetRefund(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
