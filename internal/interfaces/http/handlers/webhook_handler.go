package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/interfaces/http/middleware"
	"paylane.backend/internal/interfaces/http/response"
	"paylane.backend/internal/usecases"
	"paylane.backend/pkg/utils"
)

// WebhookHandler handles webhook log and endpoint-config endpoints
type WebhookHandler struct {
	webhookUsecase *usecases.WebhookUsecase
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase *usecases.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// ListWebhookLogs lists the merchant's delivery history
// GET /api/v1/webhooks?limit&offset
func (h *WebhookHandler) ListWebhookLogs(c *gin.Context) {
	var query utils.PaginationParams
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}
	params := utils.GetPaginationParams(query.Limit, query.Offset)

	views, total, err := h.webhookUsecase.ListWebhookLogs(c.Request.Context(), middleware.MerchantID(c), params.Limit, params.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"items":  views,
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

// RetryWebhook re-runs delivery for a log with a fresh attempt budget
// POST /api/v1/webhooks/:id/retry
func (h *WebhookHandler) RetryWebhook(c *gin.Context) {
	view, err := h.webhookUsecase.RetryWebhook(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ConfigureWebhook sets the merchant's webhook URL, minting a signing
// secret the first time
// POST /api/v1/webhooks/config
func (h *WebhookHandler) ConfigureWebhook(c *gin.Context) {
	var input entities.WebhookConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	url, secret, err := h.webhookUsecase.ConfigureEndpoint(c.Request.Context(), middleware.MerchantID(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"webhook_url":    url,
		"webhook_secret": secret,
	})
}
