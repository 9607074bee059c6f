package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OIDC_ISSUER", "https://issuer.example.com")
	t.Setenv("OIDC_AUDIENCE", "storefront")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "https://issuer.example.com", cfg.OIDC.Issuer)
	assert.Equal(t, "storefront", cfg.OIDC.Audience)
	assert.Empty(t, cfg.OIDC.JWKSURL)
	assert.Equal(t, 600*time.Second, cfg.OIDC.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.OIDC.ClockSkew)
}

func TestLoadMissingIssuer(t *testing.T) {
	t.Setenv("OIDC_ISSUER", "")
	t.Setenv("OIDC_AUDIENCE", "storefront")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC_ISSUER")
}

func TestLoadMissingAudience(t *testing.T) {
	t.Setenv("OIDC_ISSUER", "https://issuer.example.com")
	t.Setenv("OIDC_AUDIENCE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC_AUDIENCE")
}

func TestLoadCacheTTLOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("OIDC_CACHE_TTL", "120")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.OIDC.CacheTTL)
}

func TestLoadCacheTTLRejectsGarbage(t *testing.T) {
	setRequired(t)
	for _, v := range []string{"abc", "-5", "0"} {
		t.Setenv("OIDC_CACHE_TTL", v)
		_, err := Load()
		require.Error(t, err, "value %q", v)
	}
}

func TestLoadExplicitJWKSURL(t *testing.T) {
	setRequired(t)
	t.Setenv("OIDC_JWKS_URL", "https://keys.example.com/jwks")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://keys.example.com/jwks", cfg.OIDC.JWKSURL)
}
