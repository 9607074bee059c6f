package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/storefront/notify"
)

// NotificationRecord is a stored delivery outcome with its write time.
type NotificationRecord struct {
	notify.DeliveryStatus
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationStatusStore persists per-order delivery records with a
// bounded lifetime; status is operational state, not order history. It
// implements notify.StatusRecorder.
type NotificationStatusStore struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

func NewNotificationStatusStore(rdb *redis.Client, keyPrefix string, ttl time.Duration) *NotificationStatusStore {
	if keyPrefix == "" {
		keyPrefix = "store:notify:"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &NotificationStatusStore{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (s *NotificationStatusStore) key(orderID int64) string {
	return fmt.Sprintf("%s%d", s.keyNS, orderID)
}

func (s *NotificationStatusStore) Put(ctx context.Context, status notify.DeliveryStatus) error {
	record := NotificationRecord{DeliveryStatus: status, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(status.OrderID), b, s.ttl).Err()
}

func (s *NotificationStatusStore) Get(ctx context.Context, orderID int64) (NotificationRecord, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(orderID)).Bytes()
	if err == redis.Nil {
		return NotificationRecord{}, false, nil
	}
	if err != nil {
		return NotificationRecord{}, false, err
	}
	var record NotificationRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return NotificationRecord{}, false, err
	}
	return record, true, nil
}
