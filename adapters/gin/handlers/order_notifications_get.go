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

func HandleOrderNotificationsGET(d Deps) gin.HandlerFunc {
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
		if order.CustomerID != customer.ID {
			ginutil.NotFound(c, "order not found")
			return
		}

		record, found, err := d.Notifications.Get(c.Request.Context(), id)
		if err != nil {
			d.Log.WithError(err).Error("notification status read failed")
			ginutil.ServerErr(c, "failed to load notification status")
			return
		}
		if !found {
			c.JSON(http.StatusOK, gin.H{"order_id": id, "status": "pending"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_id":   id,
			"status":     "processed",
			"sms_sent":   record.SMSSent,
			"email_sent": record.EmailSent,
			"attempts":   record.Attempts,
			"updated_at": record.UpdatedAt,
		})
	}
}
