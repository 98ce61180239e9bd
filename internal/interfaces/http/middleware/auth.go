package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/internal/interfaces/http/response"
	"paylane.backend/pkg/crypto"
	"paylane.backend/pkg/logger"
)

const (
	// APIKeyHeader carries the merchant's public key id
	APIKeyHeader = "X-API-Key"
	// APISecretHeader carries the merchant's secret, verified against the
	// stored bcrypt hash
	APISecretHeader = "X-API-Secret"

	// MerchantKey is the gin context key for the authenticated merchant
	MerchantKey = "merchant"
)

// Auth authenticates requests with key-and-secret merchant credentials.
// Used on everything except the public checkout surface.
func Auth(merchantRepo repositories.MerchantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, err := resolveMerchant(c, merchantRepo)
		if err != nil {
			response.AbortError(c, err)
			return
		}

		secret := c.GetHeader(APISecretHeader)
		if secret == "" || !crypto.CheckSecret(secret, merchant.APISecretHash) {
			logger.Warn(c.Request.Context(), "invalid api secret",
				zap.String("merchant_id", merchant.ID.String()),
			)
			response.AbortError(c, domainerrors.Unauthorized("Invalid API credentials"))
			return
		}

		c.Set(MerchantKey, merchant)
		c.Next()
	}
}

// AuthPublic authenticates with the api key alone. The checkout surface
// runs in the browser where the secret must never appear.
func AuthPublic(merchantRepo repositories.MerchantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, err := resolveMerchant(c, merchantRepo)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		c.Set(MerchantKey, merchant)
		c.Next()
	}
}

func resolveMerchant(c *gin.Context, merchantRepo repositories.MerchantRepository) (*entities.Merchant, error) {
	apiKey := c.GetHeader(APIKeyHeader)
	if apiKey == "" {
		return nil, domainerrors.Unauthorized("Missing API key")
	}

	merchant, err := merchantRepo.GetByAPIKey(c.Request.Context(), apiKey)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Unauthorized("Invalid API credentials")
		}
		return nil, err
	}
	return merchant, nil
}

// GetMerchant gets the authenticated merchant from context
func GetMerchant(c *gin.Context) (*entities.Merchant, bool) {
	v, exists := c.Get(MerchantKey)
	if !exists {
		return nil, false
	}
	merchant, ok := v.(*entities.Merchant)
	return merchant, ok
}

// MerchantID returns the authenticated merchant id, uuid.Nil when absent
func MerchantID(c *gin.Context) uuid.UUID {
	merchant, ok := GetMerchant(c)
	if !ok {
		return uuid.Nil
	}
	return merchant.ID
}
