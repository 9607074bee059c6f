package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/storefront/adapters/gin"
	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
)

func HandleOrderGET(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := authgin.CurrentCustomer(c)
		if !ok {
			ginutil.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			ginutil.BadRequest(c, "invalid order id")
			return
		}

		order, err := d.Catalog.GetOrder(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			ginutil.NotFound(c, "order not found")
			return
		}
		if err != nil {
			d.Log.WithError(err).Error("get order failed")
			ginutil.ServerErr(c, "failed to load order")
			return
		}
		// Orders are private to their owner; report foreign ids as absent
		// rather than confirming they exist.
		if order.CustomerID != customer.ID {
			ginutil.NotFound(c, "order not found")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
