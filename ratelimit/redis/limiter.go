// Package redislimiter rate-limits expensive storefront operations, order
// placement and catalog uploads in particular, with a shared sliding
// window in redis.
package redislimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Buckets used by the HTTP layer.
const (
	BucketOrders  = "orders"
	BucketUploads = "uploads"
)

// DefaultLimits is tuned for a small storefront: order placement is
// per-customer, uploads are an admin batch operation.
var DefaultLimits = map[string]Limit{
	BucketOrders:  {Limit: 10, Window: time.Minute},
	BucketUploads: {Limit: 3, Window: time.Minute},
	"default":     {Limit: 100, Window: time.Minute},
}

// Limiter is a redis-backed sliding window limiter using ZSETs, so a
// burst at a window boundary cannot double the effective rate.
type Limiter struct {
	rdb    *redis.Client
	limits map[string]Limit
}

func New(rdb *redis.Client, limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{rdb: rdb, limits: limits}
}

func (l *Limiter) get(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

// Allow reports whether one more request in the bucket is within the
// key's limit. A nil limiter allows everything.
func (l *Limiter) Allow(ctx context.Context, bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("ratelimit: bucket and key required")
	}

	lim := l.get(bucket)
	now := time.Now().UnixMilli()
	start := now - lim.Window.Milliseconds()
	limitKey := fmt.Sprintf("store:ratelimit:%s:%s", bucket, key)

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, limitKey, redis.Z{Score: float64(now), Member: now})
	pipe.ZRemRangeByScore(ctx, limitKey, "0", fmt.Sprintf("%d", start))
	countCmd := pipe.ZCard(ctx, limitKey)
	pipe.Expire(ctx, limitKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		// Denied attempts don't consume quota.
		l.rdb.ZRem(ctx, limitKey, now)
		return false, nil
	}
	return true, nil
}
