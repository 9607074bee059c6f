package oidckit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/storefront/testkit"
)

func TestResolveJWKSURL(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		explicit string
		want     string
		wantErr  bool
	}{
		{
			name:     "explicit url wins",
			issuer:   "https://issuer.example.com",
			explicit: "https://keys.example.com/jwks",
			want:     "https://keys.example.com/jwks",
		},
		{
			name:   "derived from issuer",
			issuer: "https://issuer.example.com",
			want:   "https://issuer.example.com/.well-known/jwks.json",
		},
		{
			name:   "trailing slash trimmed",
			issuer: "https://issuer.example.com/",
			want:   "https://issuer.example.com/.well-known/jwks.json",
		},
		{
			name:   "well-known issuer passes through",
			issuer: "https://issuer.example.com/.well-known/jwks.json",
			want:   "https://issuer.example.com/.well-known/jwks.json",
		},
		{
			name:    "nothing configured",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveJWKSURL(tt.issuer, tt.explicit)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestCache(t *testing.T, issuer *testkit.Issuer) *KeyCache {
	t.Helper()
	cache, err := NewKeyCache(CachePolicy{Issuer: issuer.URL()}, nil)
	require.NoError(t, err)
	return cache
}

// backdate pretends the current snapshot was fetched long ago.
func backdate(c *KeyCache) {
	s := c.snap.Load()
	c.snap.Store(&keySnapshot{set: s.set, lastUpdated: time.Now().Add(-time.Hour)})
}

func TestKeyCacheServesFromCacheWithinTTL(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	cache := newTestCache(t, issuer)

	set, err := cache.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.EqualValues(t, 1, issuer.FetchCount())

	_, err = cache.Keys(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, issuer.FetchCount(), "second read within ttl must not fetch")
}

func TestKeyCacheRefreshesAfterTTL(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	cache := newTestCache(t, issuer)

	_, err := cache.Keys(context.Background())
	require.NoError(t, err)
	backdate(cache)

	_, err = cache.Keys(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, issuer.FetchCount())
}

func TestKeyCacheServesStaleOnFetchFailure(t *testing.T) {
	issuer := testkit.NewIssuer(t)

	var fail atomic.Bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		resp, err := http.Get(issuer.URL() + "/.well-known/jwks.json")
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(w, resp.Body)
	}))
	defer proxy.Close()

	cache, err := NewKeyCache(CachePolicy{JWKSURL: proxy.URL}, nil)
	require.NoError(t, err)

	set, err := cache.Keys(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	fail.Store(true)
	backdate(cache)

	stale, err := cache.Keys(context.Background())
	require.NoError(t, err, "fetch failure with a cached set must serve stale")
	assert.Equal(t, 1, stale.Len())
}

func TestKeyCacheColdFailureReturnsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache, err := NewKeyCache(CachePolicy{JWKSURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = cache.Keys(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, srv.URL, fetchErr.URL)
}

func TestKeyCacheRejectsEmptyKeySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer srv.Close()

	cache, err := NewKeyCache(CachePolicy{JWKSURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = cache.Keys(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Error(), "no keys")
}

func TestKeyCacheCoalescesConcurrentRefreshes(t *testing.T) {
	issuer := testkit.NewIssuer(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			close(entered)
			<-release
		})
		resp, err := http.Get(issuer.URL() + "/.well-known/jwks.json")
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(w, resp.Body)
	}))
	defer gate.Close()

	cache, err := NewKeyCache(CachePolicy{JWKSURL: gate.URL}, nil)
	require.NoError(t, err)

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Keys(context.Background())
			errs <- err
		}()
	}

	<-entered
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, issuer.FetchCount(), "concurrent cold reads must share one fetch")
}

func TestKeyCacheContextCancellation(t *testing.T) {
	issuer := testkit.NewIssuer(t)
	cache := newTestCache(t, issuer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Keys(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
