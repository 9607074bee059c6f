package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
)

func HandleProductGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			ginutil.BadRequest(c, "invalid product id")
			return
		}

		product, err := d.Catalog.GetProduct(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			ginutil.NotFound(c, "product not found")
			return
		}
		if err != nil {
			d.Log.WithError(err).Error("get product failed")
			ginutil.ServerErr(c, "failed to load product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
