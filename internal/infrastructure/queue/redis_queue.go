package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"paylane.backend/internal/domain/repositories"
	"paylane.backend/pkg/utils"
)

// Redis key layout. Each job kind has a ready list (LPUSH/BRPOPLPUSH) and
// a scheduled sorted set keyed by due time in unix millis. In-flight jobs
// sit on per-consumer processing lists tracked in a registry set; each
// consumer holds a heartbeat key whose expiry marks its jobs reclaimable.
// Counters track lifetime outcomes for the health probe.
const (
	keyPrefix          = "queue:"
	processingRegistry = "queue:processing_lists"
	heartbeatPrefix    = "queue:consumers:"
	statsCompleted     = "queue:stats:completed"
	statsFailed        = "queue:stats:failed"
	jobIDPrefix        = "job_"
	consumerIDPrefix   = "consumer_"
	defaultMoveBudget  = 100
)

// jobKinds enumerates every queue the health probe inspects
var jobKinds = []string{
	repositories.JobProcessPayment,
	repositories.JobProcessRefund,
	repositories.JobDeliverWebhook,
}

func readyKey(kind string) string {
	return keyPrefix + kind + ":ready"
}

func scheduledKey(kind string) string {
	return keyPrefix + kind + ":scheduled"
}

func processingKey(kind, consumerID string) string {
	return keyPrefix + kind + ":processing:" + consumerID
}

func heartbeatKey(consumerID string) string {
	return heartbeatPrefix + consumerID
}

// parseProcessingKey recovers the job kind and owning consumer from a
// processing list key
func parseProcessingKey(key string) (kind, owner string, ok bool) {
	rest, found := strings.CutPrefix(key, keyPrefix)
	if !found {
		return "", "", false
	}
	kind, owner, found = strings.Cut(rest, ":processing:")
	if !found || kind == "" || owner == "" {
		return "", "", false
	}
	return kind, owner, true
}

// envelope is the wire form of a queued job. Payloads carry entity ids
// only; consumers re-read state so at-least-once redelivery is safe.
type envelope struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt int64           `json:"enqueued_at"`
}

// RedisQueue is a durable at-least-once job queue backed by Redis
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a queue on an explicitly injected client
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Enqueue appends a job for immediate delivery
func (q *RedisQueue) Enqueue(ctx context.Context, kind string, payload interface{}) error {
	return q.EnqueueIn(ctx, kind, payload, 0)
}

// EnqueueIn appends a job for delivery after the given delay
func (q *RedisQueue) EnqueueIn(ctx context.Context, kind string, payload interface{}, delay time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	env := envelope{
		ID:         utils.GenerateID(jobIDPrefix),
		Kind:       kind,
		Payload:    body,
		EnqueuedAt: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal job envelope: %w", err)
	}

	if delay <= 0 {
		if err := q.client.LPush(ctx, readyKey(kind), raw).Err(); err != nil {
			return fmt.Errorf("enqueue %s: %w", kind, err)
		}
		queueDepth.WithLabelValues(kind).Inc()
		return nil
	}

	due := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, scheduledKey(kind), redis.Z{Score: due, Member: raw}).Err(); err != nil {
		return fmt.Errorf("schedule %s: %w", kind, err)
	}
	queueDepth.WithLabelValues(kind).Inc()
	return nil
}

// Counts returns the health probe snapshot across all job kinds
func (q *RedisQueue) Counts(ctx context.Context) (*repositories.QueueCounts, error) {
	counts := &repositories.QueueCounts{}

	for _, kind := range jobKinds {
		ready, err := q.client.LLen(ctx, readyKey(kind)).Result()
		if err != nil {
			return nil, err
		}
		scheduled, err := q.client.ZCard(ctx, scheduledKey(kind)).Result()
		if err != nil {
			return nil, err
		}
		counts.Pending += ready + scheduled
	}

	// In-flight work is whatever sits on the registered processing lists,
	// so a consumer that dies mid-job cannot leak the count.
	lists, err := q.client.SMembers(ctx, processingRegistry).Result()
	if err != nil {
		return nil, err
	}
	for _, key := range lists {
		n, err := q.client.LLen(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		counts.Processing += n
	}

	for _, pair := range []struct {
		key  string
		dest *int64
	}{
		{statsCompleted, &counts.Completed},
		{statsFailed, &counts.Failed},
	} {
		val, err := q.client.Get(ctx, pair.key).Int64()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		*pair.dest = val
	}

	return counts, nil
}

// promoteDue moves scheduled jobs whose due time has passed onto the
// ready list. ZRem-before-push keeps concurrent movers from duplicating a
// job more than at-least-once delivery already allows.
func promoteDue(ctx context.Context, client *redis.Client, kind string, now time.Time) error {
	members, err := client.ZRangeByScore(ctx, scheduledKey(kind), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixMilli()),
		Count: defaultMoveBudget,
	}).Result()
	if err != nil {
		return err
	}

	for _, member := range members {
		removed, err := client.ZRem(ctx, scheduledKey(kind), member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue // another mover won
		}
		if err := client.LPush(ctx, readyKey(kind), member).Err(); err != nil {
			return err
		}
	}
	return nil
}
