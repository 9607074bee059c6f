// Package redisstore holds the redis-backed caches and session stores.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// PriceCache caches computed price aggregates under a shared namespace.
// It satisfies catalog.PriceCache.
type PriceCache struct {
	rdb   *redis.Client
	keyNS string
}

func NewPriceCache(rdb *redis.Client, keyPrefix string) *PriceCache {
	if keyPrefix == "" {
		keyPrefix = "store:prices:"
	}
	return &PriceCache{rdb: rdb, keyNS: keyPrefix}
}

func (c *PriceCache) key(k string) string { return c.keyNS + k }

func (c *PriceCache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var v float64
	if err := json.Unmarshal(val, &v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (c *PriceCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}
