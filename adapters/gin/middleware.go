// Package authgin adapts the authenticator to gin middleware.
package authgin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/auth"
	"github.com/open-rails/storefront/identity"
)

const (
	customerKey = "auth.customer"
	tokenKey    = "auth.token"
)

// Authenticator is the slice of the auth package the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Result, error)
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "authentication backend unavailable"})
			return
		}
		switch res.State {
		case auth.StateAuthenticated:
			c.Set(customerKey, res.Customer)
			c.Set(tokenKey, res.Token)
			c.Next()
		case auth.StateFailed:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": res.Reason})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
		}
	}
}

// AuthOptional authenticates when bearer credentials are present but lets
// anonymous requests through. An invalid token is still rejected; silently
// downgrading a bad token to anonymous would mask client bugs.
func AuthOptional(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "authentication backend unavailable"})
			return
		}
		switch res.State {
		case auth.StateAuthenticated:
			c.Set(customerKey, res.Customer)
			c.Set(tokenKey, res.Token)
			c.Next()
		case auth.StateFailed:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": res.Reason})
		default:
			c.Next()
		}
	}
}

// CurrentCustomer returns the authenticated customer set by the
// middleware, if any.
func CurrentCustomer(c *gin.Context) (*identity.Customer, bool) {
	v, ok := c.Get(customerKey)
	if !ok {
		return nil, false
	}
	customer, ok := v.(*identity.Customer)
	return customer, ok && customer != nil
}
