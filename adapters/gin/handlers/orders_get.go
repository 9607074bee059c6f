package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/storefront/adapters/gin"
	"github.com/open-rails/storefront/adapters/ginutil"
)

func HandleOrdersGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := authgin.CurrentCustomer(c)
		if !ok {
			ginutil.Unauthorized(c, "authentication credentials were not provided")
			return
		}

		orders, err := d.Catalog.ListOrders(c.Request.Context(), customer.ID)
		if err != nil {
			d.Log.WithError(err).Error("list orders failed")
			ginutil.ServerErr(c, "failed to list orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": orders})
	}
}
