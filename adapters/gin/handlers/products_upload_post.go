package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/storefront/adapters/gin"
	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
	redislimiter "github.com/open-rails/storefront/ratelimit/redis"
)

// maxUploadBytes bounds the accepted CSV size.
const maxUploadBytes = 10 << 20

func HandleProductsUploadPOST(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := authgin.CurrentCustomer(c)
		if !ok {
			ginutil.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		if !ginutil.Allow(c, d.Limiter, redislimiter.BucketUploads, strconv.FormatInt(customer.ID, 10)) {
			ginutil.TooMany(c)
			return
		}

		file, _, err := c.Request.FormFile("file")
		if err != nil {
			ginutil.BadRequest(c, "multipart field \"file\" is required")
			return
		}
		defer func() { _ = file.Close() }()

		rows, err := catalog.ParseProductRows(http.MaxBytesReader(c.Writer, file, maxUploadBytes))
		if err != nil {
			ginutil.BadRequest(c, err.Error())
			return
		}

		imported, err := d.Catalog.ImportProducts(c.Request.Context(), rows)
		if err != nil {
			d.Log.WithError(err).Error("product import failed")
			ginutil.ServerErr(c, "failed to import products")
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": imported})
	}
}
