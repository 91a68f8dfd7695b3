package redis

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// HealthChecker monitors the queue's Redis connection. Checks run
// through a circuit breaker so a dead Redis does not pile up probes.
type HealthChecker struct {
	client   redis.UniversalClient
	breaker  *gobreaker.CircuitBreaker
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	healthy bool
}

// NewHealthChecker creates a health checker and starts its periodic
// probe loop. Call Stop to end it.
func NewHealthChecker(client redis.UniversalClient, interval time.Duration) *HealthChecker {
	h := &HealthChecker{
		client: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "redis-health",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		interval: interval,
		stop:     make(chan struct{}),
	}
	go h.loop()
	return h
}

// IsHealthy returns the result of the most recent probe.
func (h *HealthChecker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.healthy
}

// Check probes the connection once and records the result.
func (h *HealthChecker) Check(ctx context.Context) bool {
	result, err := h.breaker.Execute(func() (interface{}, error) {
		return h.client.Ping(ctx).Result()
	})
	healthy := err == nil && result == "PONG"

	h.mu.Lock()
	h.healthy = healthy
	h.mu.Unlock()
	return healthy
}

// Stop ends the probe loop.
func (h *HealthChecker) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *HealthChecker) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			h.Check(ctx)
			cancel()
		}
	}
}
