package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
)

func HandleWishlistGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)

		ids, err := d.Wishlist.List(c.Request.Context(), sid)
		if err != nil {
			d.Log.WithError(err).Error("wishlist read failed")
			ginutil.ServerErr(c, "failed to load wishlist")
			return
		}

		products, err := d.Catalog.ProductsByIDs(c.Request.Context(), ids)
		if err != nil {
			d.Log.WithError(err).Error("wishlist products load failed")
			ginutil.ServerErr(c, "failed to load wishlist")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}
