package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "store_session"
	// sessionMaxAge matches the wishlist TTL.
	sessionMaxAge = 30 * 24 * 60 * 60
)

// sessionID returns the browser session id, minting a cookie on first
// contact. Wishlists hang off this id so guests get one without signing
// in.
func sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", false, true)
	return id
}
