package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/internal/interfaces/http/response"
)

// JobsHandler exposes the queue health probe
type JobsHandler struct {
	queue repositories.Queue
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(queue repositories.Queue) *JobsHandler {
	return &JobsHandler{queue: queue}
}

// Status reports queue depths and processed counters
// GET /api/v1/jobs/status
func (h *JobsHandler) Status(c *gin.Context) {
	counts, err := h.queue.Counts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	workerStatus := "idle"
	if counts.Pending > 0 || counts.Processing > 0 {
		workerStatus = "busy"
	}

	response.Success(c, http.StatusOK, gin.H{
		"pending":       counts.Pending,
		"processing":    counts.Processing,
		"completed":     counts.Completed,
		"failed":        counts.Failed,
		"worker_status": workerStatus,
	})
}
