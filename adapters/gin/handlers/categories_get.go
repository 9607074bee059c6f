package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/storefront/adapters/ginutil"
)

func HandleCategoriesGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := d.Catalog.ListCategories(c.Request.Context())
		if err != nil {
			d.Log.WithError(err).Error("list categories failed")
			ginutil.ServerErr(c, "failed to list categories")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": categories})
	}
}
