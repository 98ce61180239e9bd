package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"paylane.backend/internal/config"
)

func TestBackoffDelay_Clamped(t *testing.T) {
	schedule := config.TestBackoffSchedule

	assert.Equal(t, time.Duration(0), backoffDelay(0, schedule))
	assert.Equal(t, 5*time.Second, backoffDelay(1, schedule))
	assert.Equal(t, 20*time.Second, backoffDelay(4, schedule))
	// past the end of the schedule, stay at the tail
	assert.Equal(t, 20*time.Second, backoffDelay(9, schedule))
	assert.Equal(t, time.Duration(0), backoffDelay(-1, schedule))
	assert.Equal(t, time.Duration(0), backoffDelay(3, nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "", truncate("", 3))
}
