package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
)

type wishlistItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

func HandleWishlistItemsPOST(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req wishlistItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "product_id is required")
			return
		}

		// Only real products go on the list.
		if _, err := d.Catalog.GetProduct(c.Request.Context(), req.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				ginutil.NotFound(c, "product not found")
				return
			}
			d.Log.WithError(err).Error("wishlist product check failed")
			ginutil.ServerErr(c, "failed to update wishlist")
			return
		}

		sid := sessionID(c)
		if err := d.Wishlist.Add(c.Request.Context(), sid, req.ProductID); err != nil {
			d.Log.WithError(err).Error("wishlist add failed")
			ginutil.ServerErr(c, "failed to update wishlist")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"product_id": req.ProductID})
	}
}
