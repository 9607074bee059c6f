package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
)

func HandleCategoryAveragePriceGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		if path == "" {
			ginutil.BadRequest(c, "category path is required")
			return
		}

		avg, err := d.Catalog.AveragePrice(c.Request.Context(), path)
		if errors.Is(err, catalog.ErrNotFound) {
			ginutil.NotFound(c, "category has no products")
			return
		}
		if err != nil {
			d.Log.WithError(err).Error("average price failed")
			ginutil.ServerErr(c, "failed to compute average price")
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": path, "average_price": avg})
	}
}
