package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"paylane.backend/pkg/logger"
	"paylane.backend/pkg/utils"
)

// Handler processes one job payload. A nil return marks the job completed;
// an error marks it failed. Handlers must be idempotent: the queue is
// at-least-once and a job may be redelivered after a crash.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Consumer pulls jobs from the ready lists of its registered kinds and
// dispatches them to handlers on a bounded worker pool. Jobs are popped
// atomically onto a per-consumer processing list (BRPOPLPUSH) and removed
// only once the handler returns, so a crash mid-job leaves the job
// recoverable. A maintenance goroutine promotes due scheduled jobs,
// refreshes this consumer's heartbeat, and requeues jobs stranded on the
// processing lists of consumers whose heartbeat has expired.
type Consumer struct {
	client       *redis.Client
	id           string
	handlers     map[string]Handler
	concurrency  int
	popTimeout   time.Duration
	moveInterval time.Duration
	heartbeatTTL time.Duration

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewConsumer creates a consumer with the given worker count
func NewConsumer(client *redis.Client, concurrency int) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		client:       client,
		id:           utils.GenerateID(consumerIDPrefix),
		handlers:     make(map[string]Handler),
		concurrency:  concurrency,
		popTimeout:   time.Second,
		moveInterval: 250 * time.Millisecond,
		heartbeatTTL: 15 * time.Second,
	}
}

// Register binds a handler to a job kind. Must be called before Start.
func (c *Consumer) Register(kind string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = h
}

// Start launches the worker pool and the maintenance goroutine. It returns
// immediately; workers stop when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	kinds := make([]string, 0, len(c.handlers))
	for kind := range c.handlers {
		kinds = append(kinds, kind)
	}
	c.mu.Unlock()

	if err := c.client.Set(ctx, heartbeatKey(c.id), 1, c.heartbeatTTL).Err(); err != nil {
		logger.Error(ctx, "setting consumer heartbeat failed", zap.Error(err))
	}
	for _, kind := range kinds {
		if err := c.client.SAdd(ctx, processingRegistry, processingKey(kind, c.id)).Err(); err != nil {
			logger.Error(ctx, "registering processing list failed",
				zap.String("kind", kind), zap.Error(err))
		}
	}

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.workLoop(ctx, kinds)
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.maintainLoop(ctx, kinds)
	}()
}

// Wait blocks until all workers have stopped, then drops the consumer
// heartbeat so a peer can promptly reclaim any job left in flight.
func (c *Consumer) Wait() {
	c.wg.Wait()

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.client.Del(ctx, heartbeatKey(c.id)).Err(); err != nil {
		logger.Error(ctx, "dropping consumer heartbeat failed", zap.Error(err))
	}
}

func (c *Consumer) workLoop(ctx context.Context, kinds []string) {
	if len(kinds) == 0 {
		return
	}
	for {
		for _, kind := range kinds {
			select {
			case <-ctx.Done():
				return
			default:
			}

			raw, err := c.client.BRPopLPush(ctx, readyKey(kind), processingKey(kind, c.id), c.popTimeout).Result()
			if err != nil {
				if err == redis.Nil || ctx.Err() != nil {
					continue
				}
				logger.Error(ctx, "queue pop failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			c.dispatch(ctx, kind, raw)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, kind, raw string) {
	queueDepth.WithLabelValues(kind).Dec()
	// Completions must still be recorded when ctx is cancelled mid-job.
	cleanup := context.WithoutCancel(ctx)

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		logger.Error(ctx, "discarding malformed job", zap.Error(err))
		c.client.Incr(cleanup, statsFailed)
		c.ack(cleanup, kind, raw)
		return
	}

	c.mu.Lock()
	h, ok := c.handlers[env.Kind]
	c.mu.Unlock()
	if !ok {
		logger.Warn(ctx, "no handler for job kind", zap.String("kind", env.Kind))
		c.client.Incr(cleanup, statsFailed)
		c.ack(cleanup, kind, raw)
		return
	}

	start := time.Now()
	err := h(ctx, env.Payload)

	if err != nil && ctx.Err() != nil {
		// Shutdown interrupted the handler. Leave the job on the
		// processing list so a peer redelivers it once the heartbeat
		// expires.
		logger.Warn(cleanup, "job interrupted, left for redelivery",
			zap.String("kind", env.Kind),
			zap.String("job_id", env.ID),
		)
		return
	}

	c.ack(cleanup, kind, raw)
	if err != nil {
		logger.Error(ctx, "job failed",
			zap.String("kind", env.Kind),
			zap.String("job_id", env.ID),
			zap.Error(err),
		)
		c.client.Incr(cleanup, statsFailed)
		jobsProcessed.WithLabelValues(env.Kind, "failed").Inc()
		return
	}

	logger.Debug(ctx, "job completed",
		zap.String("kind", env.Kind),
		zap.String("job_id", env.ID),
		zap.Duration("took", time.Since(start)),
	)
	c.client.Incr(cleanup, statsCompleted)
	jobsProcessed.WithLabelValues(env.Kind, "completed").Inc()
}

// ack removes a finished job from this consumer's processing list
func (c *Consumer) ack(ctx context.Context, kind, raw string) {
	if err := c.client.LRem(ctx, processingKey(kind, c.id), 1, raw).Err(); err != nil {
		logger.Error(ctx, "removing job from processing list failed",
			zap.String("kind", kind), zap.Error(err))
	}
}

func (c *Consumer) maintainLoop(ctx context.Context, kinds []string) {
	ticker := time.NewTicker(c.moveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.client.Set(ctx, heartbeatKey(c.id), 1, c.heartbeatTTL).Err(); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "refreshing consumer heartbeat failed", zap.Error(err))
			}
			for _, kind := range kinds {
				if err := promoteDue(ctx, c.client, kind, time.Now()); err != nil && ctx.Err() == nil {
					logger.Error(ctx, "promoting scheduled jobs failed",
						zap.String("kind", kind), zap.Error(err))
				}
			}
			if err := reapStale(ctx, c.client, c.id); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "reaping stale jobs failed", zap.Error(err))
			}
		}
	}
}

// reapStale requeues jobs stranded on the processing lists of consumers
// whose heartbeat has expired. Every live consumer runs this, so a crashed
// worker's in-flight jobs are redelivered as soon as any peer notices.
func reapStale(ctx context.Context, client *redis.Client, selfID string) error {
	lists, err := client.SMembers(ctx, processingRegistry).Result()
	if err != nil {
		return err
	}

	for _, key := range lists {
		kind, owner, ok := parseProcessingKey(key)
		if !ok {
			client.SRem(ctx, processingRegistry, key)
			continue
		}
		if owner == selfID {
			continue
		}
		alive, err := client.Exists(ctx, heartbeatKey(owner)).Result()
		if err != nil {
			return err
		}
		if alive > 0 {
			continue
		}

		requeued := 0
		for {
			_, err := client.RPopLPush(ctx, key, readyKey(kind)).Result()
			if err == redis.Nil {
				break
			}
			if err != nil {
				return err
			}
			queueDepth.WithLabelValues(kind).Inc()
			requeued++
		}
		if err := client.SRem(ctx, processingRegistry, key).Err(); err != nil {
			return err
		}
		if requeued > 0 {
			logger.Warn(ctx, "requeued jobs from dead consumer",
				zap.String("kind", kind),
				zap.String("consumer_id", owner),
				zap.Int("count", requeued),
			)
		}
	}
	return nil
}
