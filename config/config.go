// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCacheTTL is how long fetched JWKS documents are served before
	// a refresh is attempted.
	DefaultCacheTTL = 600 * time.Second

	// DefaultClockSkew is the leeway allowed when checking token timestamps.
	DefaultClockSkew = 30 * time.Second
)

// OIDC holds the bearer-token verification settings. Issuer and Audience
// are required; without them the process must not start.
type OIDC struct {
	Issuer   string
	Audience string
	// JWKSURL overrides the issuer-derived JWKS location when set.
	JWKSURL   string
	CacheTTL  time.Duration
	ClockSkew time.Duration
}

// SMS configures the Africa's Talking SMS gateway.
type SMS struct {
	Username   string
	APIKey     string
	Sandbox    bool
	StorePhone string
}

// Email configures SMTP delivery for order notifications.
type Email struct {
	SMTPAddr   string // host:port
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	AdminEmail string
}

// Config is the full process configuration.
type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	OIDC          OIDC
	SMS           SMS
	Email         Email
}

// Load reads configuration from environment variables. It returns an error
// if a required value is missing or malformed; callers should treat that
// as fatal.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8000"),
		DatabaseURL:   getenv("DATABASE_URL", "postgres://localhost:5432/storefront?sslmode=disable"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		OIDC: OIDC{
			Issuer:    strings.TrimSpace(os.Getenv("OIDC_ISSUER")),
			Audience:  strings.TrimSpace(os.Getenv("OIDC_AUDIENCE")),
			JWKSURL:   strings.TrimSpace(os.Getenv("OIDC_JWKS_URL")),
			CacheTTL:  DefaultCacheTTL,
			ClockSkew: DefaultClockSkew,
		},
		SMS: SMS{
			Username:   os.Getenv("AFRICASTALKING_USERNAME"),
			APIKey:     os.Getenv("AFRICASTALKING_API_KEY"),
			Sandbox:    boolenv("AFRICASTALKING_SANDBOX", true),
			StorePhone: os.Getenv("STORE_PHONE_NUMBER"),
		},
		Email: Email{
			SMTPAddr:   getenv("SMTP_ADDR", "localhost:25"),
			SMTPUser:   os.Getenv("SMTP_USERNAME"),
			SMTPPass:   os.Getenv("SMTP_PASSWORD"),
			FromEmail:  os.Getenv("DEFAULT_FROM_EMAIL"),
			AdminEmail: os.Getenv("ADMIN_EMAIL"),
		},
	}

	if cfg.OIDC.Issuer == "" {
		return nil, fmt.Errorf("config: OIDC_ISSUER is required")
	}
	if cfg.OIDC.Audience == "" {
		return nil, fmt.Errorf("config: OIDC_AUDIENCE is required")
	}

	if v := strings.TrimSpace(os.Getenv("OIDC_CACHE_TTL")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("config: OIDC_CACHE_TTL must be a positive number of seconds, got %q", v)
		}
		cfg.OIDC.CacheTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolenv(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "false", "0", "f", "no", "n":
		return false
	default:
		return true
	}
}
