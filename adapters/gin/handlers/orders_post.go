package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/storefront/adapters/gin"
	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
	redislimiter "github.com/open-rails/storefront/ratelimit/redis"
)

type createOrderRequest struct {
	Items []catalog.OrderLine `json:"items" binding:"required"`
	// PreferredDate is "2006-01-02"; PreferredTime free text ("morning").
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	NotifySMS     bool   `json:"notify_sms"`
	NotifyEmail   bool   `json:"notify_email"`
}

func HandleOrdersPOST(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := authgin.CurrentCustomer(c)
		if !ok {
			ginutil.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		if !ginutil.Allow(c, d.Limiter, redislimiter.BucketOrders, strconv.FormatInt(customer.ID, 10)) {
			ginutil.TooMany(c)
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid order payload: "+err.Error())
			return
		}

		in := catalog.CreateOrderInput{
			CustomerID:    customer.ID,
			Lines:         req.Items,
			PreferredTime: req.PreferredTime,
			NotifySMS:     req.NotifySMS,
			NotifyEmail:   req.NotifyEmail,
		}
		if req.PreferredDate != "" {
			date, err := time.Parse("2006-01-02", req.PreferredDate)
			if err != nil {
				ginutil.BadRequest(c, "preferred_date must be YYYY-MM-DD")
				return
			}
			in.PreferredDate = &date
		}

		order, err := d.Catalog.CreateOrder(c.Request.Context(), in)
		if errors.Is(err, catalog.ErrEmptyOrder) || errors.Is(err, catalog.ErrNotFound) {
			ginutil.BadRequest(c, err.Error())
			return
		}
		if err != nil {
			d.Log.WithError(err).Error("create order failed")
			ginutil.ServerErr(c, "failed to place order")
			return
		}

		d.Dispatcher.OrderPlaced(c.Request.Context(), order.ID)
		c.JSON(http.StatusCreated, order)
	}
}
