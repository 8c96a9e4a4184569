package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// Throttle caps how many emails one client may push through the relay per
// window. Counters live in Redis so several relay replicas share them.
type Throttle struct {
	redis  *redis.Client
	logger *logging.Logger
	max    int
	window time.Duration
}

// ThrottleResult is the outcome of one throttle check.
type ThrottleResult struct {
	Allowed bool
	Count   int
	Max     int
	ResetAt time.Time
}

// NewThrottle creates a throttle. A nil client disables it.
func NewThrottle(client *redis.Client, max int, window time.Duration, logger *logging.Logger) *Throttle {
	if logger == nil {
		logger = logging.Default()
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Throttle{redis: client, logger: logger, max: max, window: window}
}

func throttleKey(client string) string {
	return fmt.Sprintf("relay:sends:%s", client)
}

// Check counts one send for client. Redis failures fail open.
func (t *Throttle) Check(ctx context.Context, client string) ThrottleResult {
	if t == nil || t.redis == nil || t.max <= 0 {
		return ThrottleResult{Allowed: true}
	}

	ctx, span := relayTracer.Start(ctx, "relay.throttle.check")
	defer span.End()

	key := throttleKey(client)
	count, err := t.redis.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Error("relay throttle unavailable", "error", err, "key", key)
		return ThrottleResult{Allowed: true, Max: t.max}
	}
	if count == 1 {
		if err := t.redis.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Error("relay throttle expire failed", "error", err, "key", key)
		}
	}

	ttl, err := t.redis.TTL(ctx, key).Result()
	switch {
	case err != nil:
		ttl = t.window
	case ttl < 0:
		// A counter without expiry would block the client for good.
		if err := t.redis.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Error("relay throttle expire failed", "error", err, "key", key)
		}
		ttl = t.window
	}

	res := ThrottleResult{
		Allowed: int(count) <= t.max,
		Count:   int(count),
		Max:     t.max,
		ResetAt: time.Now().Add(ttl),
	}
	if !res.Allowed {
		t.logger.Warn("relay send throttled", "client", client, "count", count, "max", t.max)
		span.SetAttributes(attribute.Bool("relay.throttled", true))
	}
	return res
}

// Reset clears the counter for client.
func (t *Throttle) Reset(ctx context.Context, client string) error {
	if t == nil || t.redis == nil {
		return nil
	}
	return t.redis.Del(ctx, throttleKey(client)).Err()
}
