// Package jobs provides the Redis-backed sync job queue and the
// sequential worker that drains it.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultQueueKey is the Redis list the queue pushes to.
const DefaultQueueKey = "xerosync:jobs"

// dequeueTimeout bounds each blocking pop so the worker can observe
// context cancellation between jobs.
const dequeueTimeout = 5 * time.Second

// Job is one queued unit of sync work.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Queue enqueues and dequeues sync jobs. Dequeue blocks for a bounded
// interval and returns (nil, nil) when no job arrived.
type Queue interface {
	Enqueue(ctx context.Context, name string, payload json.RawMessage) (string, error)
	Dequeue(ctx context.Context) (*Job, error)
}

// RedisQueue is a Queue on a Redis list: LPUSH to enqueue, BRPOP to
// dequeue, so jobs run in arrival order.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

// NewRedisQueue creates a queue on the given Redis client. An empty
// key selects DefaultQueueKey.
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, now: time.Now}
}

// Enqueue appends a job and returns its generated id.
func (q *RedisQueue) Enqueue(ctx context.Context, name string, payload json.RawMessage) (string, error) {
	job := Job{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: q.now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", name, err)
	}
	return job.ID, nil
}

// Dequeue pops the oldest job, blocking up to dequeueTimeout.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BRPop(ctx, dequeueTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue job: unexpected reply of %d elements", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of queued jobs.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}
