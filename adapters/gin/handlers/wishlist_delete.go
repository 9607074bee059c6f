package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
)

func HandleWishlistDELETE(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)
		if err := d.Wishlist.Clear(c.Request.Context(), sid); err != nil {
			d.Log.WithError(err).Error("wishlist clear failed")
			ginutil.ServerErr(c, "failed to clear wishlist")
			return
		}
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	}
}
