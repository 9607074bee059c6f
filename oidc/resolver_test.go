package oidckit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/storefront/testkit"
)

func TestResolveKeyEmptyKid(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	resolver := NewKeyResolver(newTestCache(t, issuer))

	_, err := resolver.ResolveKey(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingKeyID)
	assert.EqualValues(t, 0, issuer.FetchCount(), "missing kid must not hit the network")
}

func TestResolveKeyKnownKid(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	resolver := NewKeyResolver(newTestCache(t, issuer))

	pub, err := resolver.ResolveKey(context.Background(), issuer.KeyID())
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.EqualValues(t, 1, issuer.FetchCount())
}

func TestResolveKeyUnknownKidRetriesOnce(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	cache := newTestCache(t, issuer)
	resolver := NewKeyResolver(cache)

	// Warm the cache so the miss is a genuine cache miss.
	_, err := cache.Keys(context.Background())
	require.NoError(t, err)

	_, err = resolver.ResolveKey(context.Background(), "no-such-kid")
	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "no-such-kid")
	assert.EqualValues(t, 2, issuer.FetchCount(), "exactly one forced refresh on a miss")
}

func TestResolveKeyFindsRotatedKey(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	cache := newTestCache(t, issuer)
	resolver := NewKeyResolver(cache)

	_, err := cache.Keys(context.Background())
	require.NoError(t, err)

	issuer.Rotate("test-key-2")

	pub, err := resolver.ResolveKey(context.Background(), "test-key-2")
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.EqualValues(t, 2, issuer.FetchCount(), "rotation recovers via a single refetch")
}
