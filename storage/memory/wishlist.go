package memorystore

import (
	"context"
	"sync"
	"time"
)

// WishlistStore is an in-memory wishlist implementation with TTL, used in
// tests and single-process development setups.
type WishlistStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	data   map[string]entry
	closed chan struct{}
}

type entry struct {
	ids map[int64]struct{}
	exp time.Time
}

// NewWishlistStore creates an in-memory wishlist store. If ttl <= 0, a
// default of 30 days is used. Starts a background goroutine to clean up
// expired sessions every minute.
func NewWishlistStore(ttl time.Duration) *WishlistStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	s := &WishlistStore{ttl: ttl, data: make(map[string]entry), closed: make(chan struct{})}
	go s.cleanupLoop()
	return s
}

func (s *WishlistStore) Add(ctx context.Context, sessionID string, productID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[sessionID]
	if !ok || time.Now().After(e.exp) {
		e = entry{ids: make(map[int64]struct{})}
	}
	e.ids[productID] = struct{}{}
	e.exp = time.Now().Add(s.ttl)
	s.data[sessionID] = e
	return nil
}

func (s *WishlistStore) Remove(ctx context.Context, sessionID string, productID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[sessionID]
	if !ok || time.Now().After(e.exp) {
		return nil
	}
	delete(e.ids, productID)
	e.exp = time.Now().Add(s.ttl)
	s.data[sessionID] = e
	return nil
}

func (s *WishlistStore) List(ctx context.Context, sessionID string) ([]int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[sessionID]
	if !ok || time.Now().After(e.exp) {
		return nil, nil
	}
	ids := make([]int64, 0, len(e.ids))
	for id := range e.ids {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *WishlistStore) Clear(ctx context.Context, sessionID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// cleanupLoop runs in the background and removes expired sessions every minute.
func (s *WishlistStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.closed:
			return
		}
	}
}

func (s *WishlistStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.data {
		if now.After(e.exp) {
			delete(s.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
// Should be called when the store is no longer needed.
func (s *WishlistStore) Close() error {
	close(s.closed)
	return nil
}
