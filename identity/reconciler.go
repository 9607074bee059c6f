package identity

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	oidckit "github.com/open-rails/storefront/oidc"
)

// CustomerStore is the persistence surface the reconciler needs.
type CustomerStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*Customer, error)
	GetOrCreate(ctx context.Context, externalID string, fields CustomerFields) (*Customer, bool, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]string) error
}

// Reconciler maps verified claims to a customer record, creating it on
// first sight and converging changed profile fields on later sightings.
type Reconciler struct {
	store CustomerStore
	log   logrus.FieldLogger
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(store CustomerStore, log logrus.FieldLogger) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{store: store, log: log}
}

// Reconcile returns the customer for the claims' subject. Empty claim
// fields never overwrite stored values, and nothing is written when no
// field changed. Storage errors propagate.
func (r *Reconciler) Reconcile(ctx context.Context, claims *oidckit.VerifiedClaims) (*Customer, error) {
	if claims == nil || claims.Subject == "" {
		return nil, fmt.Errorf("identity: claims missing subject")
	}

	customer, err := r.store.FindByExternalID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer, created, err := r.store.GetOrCreate(ctx, claims.Subject, CustomerFields{
			FirstName: claims.GivenName,
			LastName:  claims.FamilyName,
			Email:     claims.Email,
			Phone:     claims.PhoneNumber,
		})
		if err != nil {
			return nil, err
		}
		if created {
			r.log.WithFields(logrus.Fields{
				"external_id": claims.Subject,
				"customer_id": customer.ID,
			}).Info("customer created from token claims")
			return customer, nil
		}
		// Lost a creation race; fall through to the diff below.
		return r.converge(ctx, customer, claims)
	}
	return r.converge(ctx, customer, claims)
}

func (r *Reconciler) converge(ctx context.Context, customer *Customer, claims *oidckit.VerifiedClaims) (*Customer, error) {
	changed := map[string]string{}
	if claims.GivenName != "" && customer.FirstName != claims.GivenName {
		customer.FirstName = claims.GivenName
		changed["first_name"] = claims.GivenName
	}
	if claims.FamilyName != "" && customer.LastName != claims.FamilyName {
		customer.LastName = claims.FamilyName
		changed["last_name"] = claims.FamilyName
	}
	if claims.Email != "" && customer.Email != claims.Email {
		customer.Email = claims.Email
		changed["email"] = claims.Email
	}
	if claims.PhoneNumber != "" && customer.Phone != claims.PhoneNumber {
		customer.Phone = claims.PhoneNumber
		changed["phone"] = claims.PhoneNumber
	}
	if len(changed) == 0 {
		return customer, nil
	}

	if err := r.store.UpdateFields(ctx, customer.ID, changed); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"fields":      len(changed),
	}).Debug("customer profile converged from token claims")
	return customer, nil
}
