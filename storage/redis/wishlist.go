package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultWishlistTTL is how long an untouched guest wishlist survives.
const DefaultWishlistTTL = 30 * 24 * time.Hour

// WishlistStore keeps per-session wishlists as redis sets of product ids.
// Wishlists belong to the browser session, not the customer, so guests can
// use them before signing in. Every mutation refreshes the TTL.
type WishlistStore struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

func NewWishlistStore(rdb *redis.Client, keyPrefix string, ttl time.Duration) *WishlistStore {
	if keyPrefix == "" {
		keyPrefix = "store:wishlist:"
	}
	if ttl <= 0 {
		ttl = DefaultWishlistTTL
	}
	return &WishlistStore{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (s *WishlistStore) key(sessionID string) string { return s.keyNS + sessionID }

// Add puts a product on the session's wishlist.
func (s *WishlistStore) Add(ctx context.Context, sessionID string, productID int64) error {
	key := s.key(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, productID)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove takes a product off the wishlist. Removing an absent product is
// not an error.
func (s *WishlistStore) Remove(ctx context.Context, sessionID string, productID int64) error {
	key := s.key(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.SRem(ctx, key, productID)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the wishlist's product ids.
func (s *WishlistStore) List(ctx context.Context, sessionID string) ([]int64, error) {
	members, err := s.rdb.SMembers(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Clear drops the whole wishlist.
func (s *WishlistStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, s.key(sessionID)).Err()
}
