package oidckit

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeyResolver maps a token's kid to a verification key backed by the
// KeyCache. A lookup miss forces one cache refresh and retries exactly
// once; this tolerates provider key rotation without refresh storms.
type KeyResolver struct {
	cache *KeyCache
}

// NewKeyResolver builds a resolver over the given cache.
func NewKeyResolver(cache *KeyCache) *KeyResolver {
	return &KeyResolver{cache: cache}
}

// ResolveKey returns the RSA public key matching kid.
func (r *KeyResolver) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, ErrMissingKeyID
	}

	set, err := r.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := set.LookupKeyID(kid); ok {
		keyCacheLookups.WithLabelValues(resultHit).Inc()
		return rsaPublicKey(key)
	}
	keyCacheLookups.WithLabelValues(resultMiss).Inc()

	// Unknown kid: the provider may have rotated keys since the last
	// fetch. One forced refresh, one retry, then give up.
	set, err = r.cache.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := set.LookupKeyID(kid); ok {
		return rsaPublicKey(key)
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
}

func rsaPublicKey(key jwk.Key) (*rsa.PublicKey, error) {
	var pub rsa.PublicKey
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("oidc: construct verification key: %w", err)
	}
	return &pub, nil
}
