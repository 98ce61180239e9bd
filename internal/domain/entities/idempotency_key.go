package entities

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyTTL is how long a cached response stays valid
const IdempotencyTTL = 24 * time.Hour

// IdempotencyKey caches the first successful response produced for a
// merchant-scoped request token. (Key, MerchantID) is unique while
// unexpired; expired records are purged lazily on next use.
type IdempotencyKey struct {
	Key        string    `json:"key"`
	MerchantID uuid.UUID `json:"merchantId"`
	Response   []byte    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the cached response may no longer be replayed
func (k *IdempotencyKey) Expired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}
