// Package handlers holds one file per storefront route.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	authgin "github.com/open-rails/storefront/adapters/gin"
	"github.com/open-rails/storefront/adapters/ginutil"
	"github.com/open-rails/storefront/catalog"
	"github.com/open-rails/storefront/notify"
	redisstore "github.com/open-rails/storefront/storage/redis"
)

// CatalogService is the slice of the catalog layer the handlers use.
type CatalogService interface {
	ListProducts(ctx context.Context, opts catalog.ListProductsOptions) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ProductsByIDs(ctx context.Context, ids []int64) ([]*catalog.Product, error)
	ListCategories(ctx context.Context) ([]*catalog.Category, error)
	AveragePrice(ctx context.Context, categoryPath string) (float64, error)
	CreateOrder(ctx context.Context, in catalog.CreateOrderInput) (*catalog.Order, error)
	GetOrder(ctx context.Context, id int64) (*catalog.Order, error)
	ListOrders(ctx context.Context, customerID int64) ([]*catalog.Order, error)
	ImportProducts(ctx context.Context, rows []catalog.ProductRow) (int, error)
}

// WishlistStore is the session wishlist the handlers talk to.
type WishlistStore interface {
	Add(ctx context.Context, sessionID string, productID int64) error
	Remove(ctx context.Context, sessionID string, productID int64) error
	List(ctx context.Context, sessionID string) ([]int64, error)
	Clear(ctx context.Context, sessionID string) error
}

// NotificationStatusReader reads delivery outcomes for the status route.
type NotificationStatusReader interface {
	Get(ctx context.Context, orderID int64) (redisstore.NotificationRecord, bool, error)
}

// Deps carries everything the route handlers need.
type Deps struct {
	Catalog       CatalogService
	Wishlist      WishlistStore
	Notifications NotificationStatusReader
	Dispatcher    *notify.Dispatcher
	Limiter       ginutil.RateLimiter
	Auth          authgin.Authenticator
	Log           logrus.FieldLogger
}

// Register mounts all storefront routes under /api.
func Register(r gin.IRouter, d Deps) {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	api := r.Group("/api")

	api.GET("/products", HandleProductsGET(d))
	api.GET("/products/:id", HandleProductGET(d))
	api.GET("/categories", HandleCategoriesGET(d))
	api.GET("/categories/average-price", HandleCategoryAveragePriceGET(d))

	authed := api.Group("", authgin.AuthRequired(d.Auth))
	authed.POST("/orders", HandleOrdersPOST(d))
	authed.GET("/orders", HandleOrdersGET(d))
	authed.GET("/orders/:id", HandleOrderGET(d))
	authed.GET("/orders/:id/notifications", HandleOrderNotificationsGET(d))
	authed.POST("/products/upload", HandleProductsUploadPOST(d))

	api.GET("/wishlist", HandleWishlistGET(d))
	api.POST("/wishlist/items", HandleWishlistItemsPOST(d))
	api.DELETE("/wishlist/items/:id", HandleWishlistItemDELETE(d))
	api.DELETE("/wishlist", HandleWishlistDELETE(d))
}
