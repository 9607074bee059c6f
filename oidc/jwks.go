package oidckit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCacheTTL is how long a fetched key set is served before the
	// next read triggers a refresh.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultFetchTimeout bounds a single JWKS HTTP fetch.
	DefaultFetchTimeout = 10 * time.Second

	wellKnownSegment = "/.well-known/"
	jwksSuffix       = "/.well-known/jwks.json"

	// maxJWKSBody limits the accepted JWKS response size.
	maxJWKSBody = 1 << 20
)

// CachePolicy configures a KeyCache. JWKSURL takes precedence when set;
// otherwise the URL is derived from Issuer.
type CachePolicy struct {
	Issuer  string
	JWKSURL string
	TTL     time.Duration

	// HTTPClient overrides the default client (10s timeout) when set.
	HTTPClient *http.Client
}

// ResolveJWKSURL returns the effective JWKS endpoint for a policy. When no
// explicit URL is configured the issuer gets the well-known suffix appended,
// unless the issuer already points at a well-known document.
func ResolveJWKSURL(issuer, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if issuer == "" {
		return "", fmt.Errorf("oidc: neither jwks url nor issuer configured")
	}
	if strings.Contains(issuer, wellKnownSegment) {
		return issuer, nil
	}
	return strings.TrimRight(issuer, "/") + jwksSuffix, nil
}

// keySnapshot is an immutable view of the provider's signing keys. The
// cache swaps whole snapshots; readers never observe a partial set.
type keySnapshot struct {
	set         jwk.Set
	lastUpdated time.Time
}

// KeyCache holds the provider's current signing keys, refreshing them from
// the JWKS endpoint when the TTL lapses. It is safe for concurrent use:
// reads go through an atomic snapshot pointer and refreshes are coalesced
// so at most one fetch is in flight.
type KeyCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	log    logrus.FieldLogger

	snap      atomic.Pointer[keySnapshot]
	refreshMu sync.Mutex
}

// NewKeyCache builds a key cache for the given policy.
func NewKeyCache(policy CachePolicy, log logrus.FieldLogger) (*KeyCache, error) {
	url, err := ResolveJWKSURL(policy.Issuer, policy.JWKSURL)
	if err != nil {
		return nil, err
	}
	ttl := policy.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	client := policy.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &KeyCache{url: url, ttl: ttl, client: client, log: log}, nil
}

// URL returns the JWKS endpoint the cache fetches from.
func (c *KeyCache) URL() string { return c.url }

// Keys returns the current key set, refreshing it first when no set has
// been loaded yet or the TTL has lapsed.
func (c *KeyCache) Keys(ctx context.Context) (jwk.Set, error) {
	if s := c.snap.Load(); s != nil && time.Since(s.lastUpdated) <= c.ttl {
		return s.set, nil
	}
	return c.refresh(ctx, c.snap.Load(), false)
}

// ForceRefresh bypasses the TTL and refetches the key set. Used by the
// resolver as a negative-cache invalidation when a kid is not found.
func (c *KeyCache) ForceRefresh(ctx context.Context) (jwk.Set, error) {
	return c.refresh(ctx, c.snap.Load(), true)
}

// refresh fetches the JWKS and swaps in a new snapshot. prev is the
// snapshot the caller observed before deciding to refresh: if another
// goroutine already swapped in a newer one while we waited on the mutex,
// that result is reused instead of issuing a redundant fetch.
func (c *KeyCache) refresh(ctx context.Context, prev *keySnapshot, force bool) (jwk.Set, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur := c.snap.Load()
	if cur != nil && cur != prev {
		return cur.set, nil
	}
	if cur != nil && !force && time.Since(cur.lastUpdated) <= c.ttl {
		return cur.set, nil
	}

	set, err := c.fetch(ctx)
	if err != nil {
		jwksRefreshTotal.WithLabelValues(outcomeError).Inc()
		if cur != nil {
			// Stale keys beat no keys: keep serving the previous set and
			// let the next TTL lapse retry the fetch.
			c.log.WithError(err).WithField("jwks_url", c.url).
				Warn("jwks refresh failed, serving cached keys")
			return cur.set, nil
		}
		return nil, &FetchError{URL: c.url, Err: err}
	}

	c.snap.Store(&keySnapshot{set: set, lastUpdated: time.Now()})
	jwksRefreshTotal.WithLabelValues(outcomeOK).Inc()
	c.log.WithField("jwks_url", c.url).Info("jwks cache refreshed")
	return set, nil
}

func (c *KeyCache) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, err
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse jwks document: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("jwks document has no keys")
	}
	return set, nil
}
