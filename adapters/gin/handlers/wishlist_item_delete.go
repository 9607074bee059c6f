package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
)

func HandleWishlistItemDELETE(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			ginutil.BadRequest(c, "invalid product id")
			return
		}

		sid := sessionID(c)
		if err := d.Wishlist.Remove(c.Request.Context(), sid, id); err != nil {
			d.Log.WithError(err).Error("wishlist remove failed")
			ginutil.ServerErr(c, "failed to update wishlist")
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": id})
	}
}
