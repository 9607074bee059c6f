// Package auth turns an Authorization header into an authentication
// decision: no opinion, hard failure, or an authenticated customer.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/storefront/identity"
	oidckit "github.com/open-rails/storefront/oidc"
)

// State tags an authentication Result.
type State int

const (
	// StateNoOpinion means no bearer credentials were presented; the
	// caller may try other schemes.
	StateNoOpinion State = iota
	// StateFailed means bearer credentials were presented and rejected.
	StateFailed
	// StateAuthenticated means the token verified and reconciled to a
	// customer.
	StateAuthenticated
)

// Result is the outcome of an authentication attempt. The three-way tag
// lets multiple schemes be tried in sequence: a missing header for this
// scheme doesn't abort the chain.
type Result struct {
	State    State
	Customer *identity.Customer
	Token    string
	// Reason is set when State is StateFailed.
	Reason string
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*oidckit.VerifiedClaims, error)
}

// ClaimsReconciler maps verified claims to a customer record.
type ClaimsReconciler interface {
	Reconcile(ctx context.Context, claims *oidckit.VerifiedClaims) (*identity.Customer, error)
}

// Authenticator orchestrates token verification and identity
// reconciliation for inbound requests.
type Authenticator struct {
	verifier   TokenVerifier
	reconciler ClaimsReconciler
	log        logrus.FieldLogger
}

// NewAuthenticator builds an authenticator.
func NewAuthenticator(verifier TokenVerifier, reconciler ClaimsReconciler, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{verifier: verifier, reconciler: reconciler, log: log}
}

// Authenticate inspects an Authorization header value. Verification and
// claim failures land in Result.Reason; the error return is reserved for
// storage faults from reconciliation.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Result, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "bearer") {
		return Result{State: StateNoOpinion}, nil
	}
	if len(parts) != 2 {
		authDecisions.WithLabelValues(decisionFailed).Inc()
		return Result{State: StateFailed, Reason: "invalid authorization header: no credentials provided"}, nil
	}

	raw := parts[1]
	claims, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		authDecisions.WithLabelValues(decisionFailed).Inc()
		a.log.WithError(err).Warn("bearer token rejected")
		return Result{State: StateFailed, Reason: err.Error()}, nil
	}

	customer, err := a.reconciler.Reconcile(ctx, claims)
	if err != nil {
		return Result{}, fmt.Errorf("auth: reconcile customer: %w", err)
	}

	authDecisions.WithLabelValues(decisionAuthenticated).Inc()
	return Result{State: StateAuthenticated, Customer: customer, Token: raw}, nil
}
