package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"paylane.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	paymentHandler *handlers.PaymentHandler
	refundHandler  *handlers.RefundHandler
	webhookHandler *handlers.WebhookHandler
	jobsHandler    *handlers.JobsHandler

	authMiddleware        gin.HandlerFunc
	authPublicMiddleware  gin.HandlerFunc
	idempotencyMiddleware gin.HandlerFunc
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// Payment routes (protected)
		payments := v1.Group("/payments")
		payments.Use(d.authMiddleware)
		{
			payments.POST("", d.idempotencyMiddleware, d.paymentHandler.CreatePayment)
			payments.GET("/:id", d.paymentHandler.GetPayment)
			payments.POST("/:id/capture", d.paymentHandler.CapturePayment)
			payments.POST("/:id/refunds", d.refundHandler.CreateRefund)
		}

		// Refund routes (protected)
		refunds := v1.Group("/refunds")
		refunds.Use(d.authMiddleware)
		{
			refunds.GET("/:id", d.refundHandler.GetRefund)
		}

		// Webhook log routes (protected)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.authMiddleware)
		{
			webhooks.GET("", d.webhookHandler.ListWebhookLogs)
			webhooks.POST("/:id/retry", d.webhookHandler.RetryWebhook)
			webhooks.POST("/config", d.webhookHandler.ConfigureWebhook)
		}

		// Checkout routes (key-only auth, safe for the browser)
		checkout := v1.Group("/checkout")
		checkout.Use(d.authPublicMiddleware)
		{
			checkout.POST("/process", d.paymentHandler.ProcessCheckout)
			checkout.GET("/status/:id", d.paymentHandler.CheckoutStatus)
		}

		// Queue health probe (protected)
		jobs := v1.Group("/jobs")
		jobs.Use(d.authMiddleware)
		{
			jobs.GET("/status", d.jobsHandler.Status)
		}
	}
}
