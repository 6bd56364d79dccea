package creatures

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps type lists as JSON strings in Redis.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisCache stores keys under prefix, e.g. "pokeduel:".
func NewRedisCache(rdb redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false, err
	}
	return names, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, names []string, ttl time.Duration) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err()
}
