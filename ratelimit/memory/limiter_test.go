package memorylimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(map[string]Limit{"orders": {Limit: 3, Window: time.Minute}})

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "orders", "customer-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := l.Allow(context.Background(), "orders", "customer-1")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request exceeds the limit")
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New(map[string]Limit{"orders": {Limit: 1, Window: time.Minute}})

	ok, err := l.Allow(context.Background(), "orders", "customer-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), "orders", "customer-2")
	require.NoError(t, err)
	assert.True(t, ok, "another customer has their own window")
}

func TestAllowWindowSlides(t *testing.T) {
	l := New(map[string]Limit{"orders": {Limit: 1, Window: 30 * time.Millisecond}})

	ok, _ := l.Allow(context.Background(), "orders", "customer-1")
	require.True(t, ok)
	ok, _ = l.Allow(context.Background(), "orders", "customer-1")
	require.False(t, ok)

	time.Sleep(40 * time.Millisecond)
	ok, err := l.Allow(context.Background(), "orders", "customer-1")
	require.NoError(t, err)
	assert.True(t, ok, "old entries fall out of the window")
}

func TestAllowFallsBackToDefaultBucket(t *testing.T) {
	l := New(map[string]Limit{"default": {Limit: 1, Window: time.Minute}})

	ok, _ := l.Allow(context.Background(), "unknown", "k")
	require.True(t, ok)
	ok, _ = l.Allow(context.Background(), "unknown", "k")
	assert.False(t, ok)
}

func TestAllowRequiresBucketAndKey(t *testing.T) {
	l := New(nil)

	_, err := l.Allow(context.Background(), "", "k")
	require.Error(t, err)
	_, err = l.Allow(context.Background(), "orders", "")
	require.Error(t, err)
}
