// Package redis builds the Redis connection backing the job queue.
package redis

import (
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tidewater/xerosync/config"
)

// NewClient creates a Redis client for the queue with retry and
// pooling tuned for a single long-lived process.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		// The worker's blocking pop holds a connection for up to its
		// poll interval, so reads need headroom beyond that.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})
}
