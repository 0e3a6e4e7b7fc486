package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache caches the device-name listing. A nil or failing cache is
// never an error for callers; the service falls through to the store.
type ListCache interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, names []string, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

const listCacheKey = "devices:names"

// RedisListCache implements ListCache on a shared redis client.
type RedisListCache struct {
	client *redis.Client
}

func NewRedisListCache(client *redis.Client) *RedisListCache {
	return &RedisListCache{client: client}
}

func (c *RedisListCache) Get(ctx context.Context) ([]string, error) {
	data, err := c.client.Get(ctx, listCacheKey).Result()
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, err
	}

	return names, nil
}

func (c *RedisListCache) Set(ctx context.Context, names []string, ttl time.Duration) error {
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, listCacheKey, data, ttl).Err()
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, listCacheKey).Err()
}
