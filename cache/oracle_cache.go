package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"
)

// OracleCache caches oracle stage responses keyed by stage name and a
// hash of the stage input. Identical raw inputs resubmitted within the
// TTL reuse the earlier classification/verification/analysis instead of
// paying for another oracle round trip. The cache is strictly
// best-effort: with no Redis behind it every lookup is a miss.
type OracleCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewOracleCache creates a new oracle response cache
func NewOracleCache(redis *RedisClient, ttl time.Duration) *OracleCache {
	return &OracleCache{
		redis: redis,
		ttl:   ttl,
	}
}

// GetStage retrieves a cached stage response into dest.
// Returns true on a cache hit.
func (c *OracleCache) GetStage(ctx context.Context, stage, inputHash string, dest interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}

	cacheKey := fmt.Sprintf("oracle:%s:%s", stage, inputHash)
	if err := c.redis.Get(ctx, cacheKey, dest); err != nil {
		return false
	}
	return true
}

// SetStage caches a stage response
func (c *OracleCache) SetStage(ctx context.Context, stage, inputHash string, value interface{}) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	cacheKey := fmt.Sprintf("oracle:%s:%s", stage, inputHash)
	return c.redis.Set(ctx, cacheKey, value, c.ttl)
}

// SetPosterCooldown marks a topic as recently postered to avoid repeated
// image generation for the same story
func (c *OracleCache) SetPosterCooldown(ctx context.Context, topicHash string, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	cooldownKey := fmt.Sprintf("oracle:poster_cooldown:%s", topicHash)
	return c.redis.Set(ctx, cooldownKey, time.Now().Unix(), ttl)
}

// InPosterCooldown checks whether a topic is in poster cooldown
func (c *OracleCache) InPosterCooldown(ctx context.Context, topicHash string) bool {
	if c == nil || c.redis == nil {
		return false
	}

	cooldownKey := fmt.Sprintf("oracle:poster_cooldown:%s", topicHash)
	return c.redis.Exists(ctx, cooldownKey)
}

// HashInput creates a short stable hash of a stage input for cache keys
func HashInput(input interface{}) string {
	jsonData, _ := json.Marshal(input)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf("%x", hash[:8])
}
