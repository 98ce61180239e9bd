package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "paylane.backend/internal/domain/errors"
)

// ErrorBody is the wire shape of all API errors
type ErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response, mapping AppError status and code.
// Anything else becomes a 500 with a stable internal code.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}
	c.JSON(appErr.Status, gin.H{"error": ErrorBody{
		Code:        appErr.Code,
		Description: appErr.Message,
	}})
}

// AbortError aborts the request chain with the error response
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
