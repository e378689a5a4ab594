package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// ProcessedTracker records webhook event ids that have already been
// handled, so provider retries do not re-run reconciliation.
type ProcessedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// RedisEventTracker tracks processed webhook events in Redis with a TTL.
type RedisEventTracker struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisEventTracker creates a tracker. Keys expire after ttl, which
// should comfortably exceed the provider's retry window.
func NewRedisEventTracker(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisEventTracker {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisEventTracker{redis: redisClient, ttl: ttl, logger: logger}
}

func eventKey(provider, eventID string) string {
	return fmt.Sprintf("webhook:event:%s:%s", provider, eventID)
}

// AlreadyProcessed reports whether the event id has been seen.
func (t *RedisEventTracker) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := t.redis.Exists(ctx, eventKey(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("payments: processed lookup: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records the event id, returning false if it was already set.
func (t *RedisEventTracker) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := t.redis.SetNX(ctx, eventKey(provider, eventID), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("payments: mark processed: %w", err)
	}
	return ok, nil
}

// MemoryEventTracker is the in-process fallback used when Redis is not
// configured. Entries expire lazily on lookup.
type MemoryEventTracker struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryEventTracker creates an in-memory tracker with the given TTL.
func NewMemoryEventTracker(ttl time.Duration) *MemoryEventTracker {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &MemoryEventTracker{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// AlreadyProcessed reports whether the event id has been seen and is not expired.
func (t *MemoryEventTracker) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := eventKey(provider, eventID)
	at, ok := t.seen[key]
	if !ok {
		return false, nil
	}
	if t.now().Sub(at) > t.ttl {
		delete(t.seen, key)
		return false, nil
	}
	return true, nil
}

// MarkProcessed records the event id, returning false if it was already live.
func (t *MemoryEventTracker) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := eventKey(provider, eventID)
	if at, ok := t.seen[key]; ok && t.now().Sub(at) <= t.ttl {
		return false, nil
	}
	t.seen[key] = t.now()
	return true, nil
}
