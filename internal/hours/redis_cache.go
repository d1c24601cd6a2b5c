package hours

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "goeat:open_status:"

// Deletes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache shares computed results between service instances.
// Keys carry a Redis TTL equal to CacheTTL; freshness is still checked
// against the injected clock so all backends age entries the same way.
type RedisCache struct {
	client *redis.Client
	clock  Clock
}

func NewRedisCache(client *redis.Client, clock Clock) *RedisCache {
	return &RedisCache{client: client, clock: clock}
}

type redisEntry struct {
	IsOpen       bool  `json:"is_open"`
	ComputedAtMs int64 `json:"computed_at_ms"`
}

func redisKey(partnerID uuid.UUID) string {
	return redisKeyPrefix + partnerID.String()
}

func (c *RedisCache) Get(ctx context.Context, partnerID uuid.UUID) (bool, bool, error) {
	key := redisKey(partnerID)
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var e redisEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		_ = compareAndDelete.Run(ctx, c.client, []string{key}, raw).Err()
		return false, false, nil
	}
	if expired(e.ComputedAtMs, c.clock.Now().UnixMilli()) {
		if err := compareAndDelete.Run(ctx, c.client, []string{key}, raw).Err(); err != nil {
			return false, false, fmt.Errorf("redis drop stale %s: %w", key, err)
		}
		return false, false, nil
	}
	return e.IsOpen, true, nil
}

func (c *RedisCache) Put(ctx context.Context, partnerID uuid.UUID, isOpen bool) error {
	data, err := json.Marshal(redisEntry{IsOpen: isOpen, ComputedAtMs: c.clock.Now().UnixMilli()})
	if err != nil {
		return err
	}
	key := redisKey(partnerID)
	if err := c.client.Set(ctx, key, data, CacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, partnerID uuid.UUID) error {
	key := redisKey(partnerID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// InvalidateAll scans the key prefix and deletes matches in batches.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del batch: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
