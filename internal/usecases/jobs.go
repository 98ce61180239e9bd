package usecases

// Queue job payloads. Jobs carry ids only: the worker re-reads current
// state so a redelivered or stale job cannot act on a stale snapshot.

// ProcessPaymentJob is the payload of a process-payment job
type ProcessPaymentJob struct {
	PaymentID string `json:"payment_id"`
}

// ProcessRefundJob is the payload of a process-refund job
type ProcessRefundJob struct {
	RefundID string `json:"refund_id"`
}

// DeliverWebhookJob is the payload of a deliver-webhook job
type DeliverWebhookJob struct {
	WebhookLogID string `json:"webhook_log_id"`
}
