package oidckit

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKeyID indicates the token header carries no kid.
	ErrMissingKeyID = errors.New("oidc: token missing key id (kid)")

	// ErrKeyNotFound indicates no key in the JWKS matches the token's kid,
	// even after a forced cache refresh.
	ErrKeyNotFound = errors.New("oidc: key id not found in jwks")

	// ErrTokenExpired indicates the token's exp claim is in the past.
	ErrTokenExpired = errors.New("oidc: token has expired")

	// ErrSignatureInvalid indicates the signature did not verify against
	// the resolved key.
	ErrSignatureInvalid = errors.New("oidc: token signature is invalid")

	// ErrMissingSubject indicates a verified token without a sub claim.
	ErrMissingSubject = errors.New("oidc: token missing sub claim")
)

// FetchError indicates the JWKS endpoint could not be read and no cached
// key set was available to fall back on.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("oidc: jwks fetch from %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClaimMismatchError names the standard claim that failed verification and
// what was expected.
type ClaimMismatchError struct {
	Claim    string
	Expected string
}

func (e *ClaimMismatchError) Error() string {
	return fmt.Sprintf("oidc: token %s claim invalid, expected %q", e.Claim, e.Expected)
}
