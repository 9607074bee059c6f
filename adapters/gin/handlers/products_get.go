package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
)

func HandleProductsGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

		opts := catalog.ListProductsOptions{
			CategoryPath: c.Query("category"),
			InStockOnly:  c.Query("in_stock") == "true",
			Search:       c.Query("search"),
			Limit:        size,
			Offset:       (page - 1) * size,
		}

		products, err := d.Catalog.ListProducts(c.Request.Context(), opts)
		if err != nil {
			d.Log.WithError(err).Error("list products failed")
			ginutil.ServerErr(c, "failed to list products")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products, "page": page, "page_size": size})
	}
}
