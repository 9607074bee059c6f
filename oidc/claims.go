package oidckit

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// VerifiedClaims is the decoded token payload after successful
// verification. Missing optional fields are empty strings; Subject is
// always non-empty.
type VerifiedClaims struct {
	Subject     string
	GivenName   string
	FamilyName  string
	Email       string
	PhoneNumber string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

func claimsFromToken(mc jwt.MapClaims) (*VerifiedClaims, error) {
	sub := stringClaim(mc, "sub")
	if sub == "" {
		return nil, ErrMissingSubject
	}
	claims := &VerifiedClaims{
		Subject:     sub,
		GivenName:   stringClaim(mc, "given_name"),
		FamilyName:  stringClaim(mc, "family_name"),
		Email:       stringClaim(mc, "email"),
		PhoneNumber: stringClaim(mc, "phone_number"),
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(mc jwt.MapClaims, name string) string {
	if v, ok := mc[name].(string); ok {
		return v
	}
	return ""
}
