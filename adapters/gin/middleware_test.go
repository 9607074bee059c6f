package authgin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/storefront/auth"
	"github.com/open-rails/storefront/identity"
)

type fakeAuthenticator struct {
	result auth.Result
	err    error
}

func (f *fakeAuthenticator) Authenticate(context.Context, string) (auth.Result, error) {
	return f.result, f.err
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		customer, ok := CurrentCustomer(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer_id": customer.ID})
	})
	return r
}

func doGet(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAuthenticated(t *testing.T) {
	a := &fakeAuthenticator{result: auth.Result{
		State:    auth.StateAuthenticated,
		Customer: &identity.Customer{ID: 42},
	}}
	w := doGet(newRouter(AuthRequired(a)), "Bearer tok")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"customer_id":42`)
}

func TestAuthRequiredNoCredentials(t *testing.T) {
	a := &fakeAuthenticator{result: auth.Result{State: auth.StateNoOpinion}}
	w := doGet(newRouter(AuthRequired(a)), "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication credentials were not provided")
}

func TestAuthRequiredFailed(t *testing.T) {
	a := &fakeAuthenticator{result: auth.Result{State: auth.StateFailed, Reason: "token has expired"}}
	w := doGet(newRouter(AuthRequired(a)), "Bearer expired")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token has expired")
}

func TestAuthRequiredBackendError(t *testing.T) {
	a := &fakeAuthenticator{err: errors.New("connection refused")}
	w := doGet(newRouter(AuthRequired(a)), "Bearer tok")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused", "backend detail must not leak")
}

func TestAuthOptionalAnonymous(t *testing.T) {
	a := &fakeAuthenticator{result: auth.Result{State: auth.StateNoOpinion}}
	w := doGet(newRouter(AuthOptional(a)), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestAuthOptionalStillRejectsBadToken(t *testing.T) {
	a := &fakeAuthenticator{result: auth.Result{State: auth.StateFailed, Reason: "signature verification failed"}}
	w := doGet(newRouter(AuthOptional(a)), "Bearer bad")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
