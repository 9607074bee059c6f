package oidckit

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// DefaultClockSkew is the leeway applied to exp/iat/nbf checks.
const DefaultClockSkew = 30 * time.Second

// VerifierConfig configures a Verifier. Issuer and Audience are required;
// their absence is a configuration error, not a per-request failure.
type VerifierConfig struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Verifier decodes and cryptographically verifies bearer tokens against
// keys resolved from the provider's JWKS.
type Verifier struct {
	issuer   string
	audience string
	skew     time.Duration
	resolver *KeyResolver
	log      logrus.FieldLogger
}

// NewVerifier builds a token verifier.
func NewVerifier(cfg VerifierConfig, resolver *KeyResolver, log logrus.FieldLogger) (*Verifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("oidc: issuer and audience must be configured")
	}
	if resolver == nil {
		return nil, fmt.Errorf("oidc: key resolver is required")
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = DefaultClockSkew
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Verifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		skew:     skew,
		resolver: resolver,
		log:      log,
	}, nil
}

// Verify checks the token's signature against the resolved key, then the
// temporal claims, then issuer and audience. Only RS256 is accepted, which
// also rules out alg=none and algorithm-confusion tokens.
func (v *Verifier) Verify(ctx context.Context, raw string) (*VerifiedClaims, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.resolver.ResolveKey(ctx, kid)
	}

	token, err := jwt.Parse(raw, keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.skew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, v.classify(err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("oidc: invalid token claims")
	}
	return claimsFromToken(mc)
}

// classify maps jwt library errors onto the package taxonomy. Resolver
// errors (missing kid, unknown kid, fetch failure) surface unchanged.
func (v *Verifier) classify(err error) error {
	var fetchErr *FetchError
	switch {
	case errors.Is(err, ErrMissingKeyID),
		errors.Is(err, ErrKeyNotFound),
		errors.As(err, &fetchErr):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &ClaimMismatchError{Claim: "iss", Expected: v.issuer}
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return &ClaimMismatchError{Claim: "aud", Expected: v.audience}
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("oidc: token not yet valid: %w", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("oidc: invalid token: %w", err)
	}
}
