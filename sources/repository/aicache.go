package repository

import (
	"context"
	"encoding/json"
	"time"

	"coinsage/sources/platform"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskRelevantCoins = "relevant-coins"
	TaskNewsFilter    = "news-filter"
)

// CacheEnvelope is the stored cache value: the payload plus the time it was
// cached. Freshness is checked against cached_at rather than relying on redis
// expiry alone, so a stale entry never reads as a hit.
type CacheEnvelope struct {
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cached_at"`
}

func (e *CacheEnvelope) Fresh(ttl time.Duration, now time.Time) bool {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return false
	}
	return now.Sub(e.CachedAt) < ttl
}

type AICacheRepository struct {
	redis *redis.Client
}

func NewAICacheRepository(redis *redis.Client) *AICacheRepository {
	return &AICacheRepository{redis: redis}
}

func (r *AICacheRepository) cacheKey(task string, userID uuid.UUID) string {
	return "advisor:" + task + ":" + userID.String()
}

// Get loads a fresh cached result into out. A missing, expired, or unreadable
// entry is a miss, never an error.
func (r *AICacheRepository) Get(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, out any) bool {
	ctx, cancel := platform.ContextTimeout(context.Background())
	defer cancel()

	key := r.cacheKey(task, userID)
	raw, err := r.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.E("Failed to read advisor cache", tracing.InnerError, err, tracing.CacheKey, key)
		return false
	}

	var envelope CacheEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		logger.E("Failed to unmarshal advisor cache envelope", tracing.InnerError, err, tracing.CacheKey, key)
		return false
	}

	if !envelope.Fresh(ttl, time.Now()) {
		return false
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		logger.E("Failed to unmarshal advisor cache payload", tracing.InnerError, err, tracing.CacheKey, key)
		return false
	}

	return true
}

// Set overwrites the task entry unconditionally; the redis TTL is a backstop
// on top of the envelope freshness check.
func (r *AICacheRepository) Set(logger *tracing.Logger, task string, userID uuid.UUID, ttl time.Duration, data any) error {
	ctx, cancel := platform.ContextTimeout(context.Background())
	defer cancel()

	payload, err := json.Marshal(data)
	if err != nil {
		logger.E("Failed to marshal advisor cache payload", tracing.InnerError, err)
		return err
	}

	envelope := CacheEnvelope{Data: payload, CachedAt: time.Now()}
	raw, err := json.Marshal(envelope)
	if err != nil {
		logger.E("Failed to marshal advisor cache envelope", tracing.InnerError, err)
		return err
	}

	key := r.cacheKey(task, userID)
	if err := r.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.E("Failed to write advisor cache", tracing.InnerError, err, tracing.CacheKey, key)
		return err
	}

	return nil
}
