package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"paylane.backend/internal/domain/entities"
	domainerrors "paylane.backend/internal/domain/errors"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/internal/interfaces/http/response"
	"paylane.backend/pkg/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// lockDuration bounds how long an in-flight request holds its token
	lockDuration = 30 * time.Second
)

type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays stored responses for repeated Idempotency-Key values.
// Records live in the database for 24h, keyed by (key, merchant); a short
// redis SetNX lock serializes racing requests with the same token. A store
// read failure rejects the request: answering fresh when a stored response
// may exist would break the replay guarantee.
func Idempotency(idempotencyRepo repositories.IdempotencyRepository, redisClient *goredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		merchantID := MerchantID(c)

		record, err := idempotencyRepo.Get(ctx, key, merchantID)
		if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			response.AbortError(c, domainerrors.InternalError(err))
			return
		}
		if record != nil && !record.Expired(time.Now()) {
			replay(c, record)
			return
		}
		if record != nil {
			// Expired record, purge lazily so the key is reusable
			if err := idempotencyRepo.Delete(ctx, key, merchantID); err != nil {
				response.AbortError(c, domainerrors.InternalError(err))
				return
			}
		}

		lockKey := fmt.Sprintf("idempotency:lock:%s:%s", merchantID, key)
		locked, err := redisClient.SetNX(ctx, lockKey, "1", lockDuration).Result()
		if err != nil {
			response.AbortError(c, domainerrors.InternalError(err))
			return
		}
		if !locked {
			response.AbortError(c, domainerrors.Conflict("Request with this Idempotency-Key is in progress"))
			return
		}
		defer redisClient.Del(ctx, lockKey)

		w := &bodyCapture{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			// Failed requests don't consume the key
			return
		}

		now := time.Now()
		record = &entities.IdempotencyKey{
			Key:        key,
			MerchantID: merchantID,
			Response:   append([]byte(nil), w.body.Bytes()...),
			CreatedAt:  now,
			ExpiresAt:  now.Add(entities.IdempotencyTTL),
		}
		if err := idempotencyRepo.Create(ctx, record); err != nil && !errors.Is(err, domainerrors.ErrAlreadyExists) {
			logger.Error(ctx, "idempotency record write failed",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		}
	}
}

func replay(c *gin.Context, record *entities.IdempotencyKey) {
	c.Header("Content-Type", "application/json")
	c.Header("X-Idempotent-Replay", "true")
	c.Data(http.StatusCreated, "application/json", record.Response)
	c.Abort()
}
