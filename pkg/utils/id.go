package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// Public id prefixes
const (
	PaymentIDPrefix    = "pay_"
	RefundIDPrefix     = "rfnd_"
	WebhookLogIDPrefix = "wh_"
	APIKeyPrefix       = "key_"
)

// GenerateID returns an opaque public identifier: prefix plus 16 hex chars.
func GenerateID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the process is in much bigger trouble
		panic(err)
	}
	return prefix + hex.EncodeToString(bytes)
}
