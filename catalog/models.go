// Package catalog holds the product catalog and order models plus their
// query layer.
package catalog

import (
	"time"

	"github.com/uptrace/bun"
)

// Category is a node in the category tree. Path is the materialized slug
// path from the root ("electronics/phones"), which makes subtree queries a
// prefix match instead of a recursive walk.
type Category struct {
	bun.BaseModel `bun:"table:store.categories,alias:c"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull" json:"name"`
	Slug     string `bun:"slug,notnull" json:"slug"`
	Path     string `bun:"path,notnull,unique" json:"path"`
	ParentID *int64 `bun:"parent_id" json:"parent_id,omitempty"`

	// ProductCount is filled by list queries, not stored.
	ProductCount int `bun:"product_count,scanonly" json:"product_count"`
}

// Product is a sellable item. SKU is the upsert key for bulk imports.
type Product struct {
	bun.BaseModel `bun:"table:store.products,alias:p"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	SKU           string    `bun:"sku,notnull,unique" json:"sku"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   string    `bun:"description" json:"description"`
	CategoryID    int64     `bun:"category_id,notnull" json:"category_id"`
	Price         float64   `bun:"price,notnull" json:"price"`
	SalePrice     *float64  `bun:"sale_price" json:"sale_price,omitempty"`
	ImageURL      string    `bun:"image_url" json:"image_url"`
	InStock       bool      `bun:"in_stock,notnull,default:true" json:"in_stock"`
	StockQuantity int       `bun:"stock_quantity,notnull,default:0" json:"stock_quantity"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

// EffectivePrice returns the sale price when one is set, the list price
// otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Order statuses walk forward only; there is no cancellation flow yet.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
)

// Order is a placed customer order with delivery preferences and the
// notification channels the customer opted into.
type Order struct {
	bun.BaseModel `bun:"table:store.orders,alias:o"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`
	Status     string    `bun:"status,notnull,default:'pending'" json:"status"`
	Total      float64   `bun:"total,notnull" json:"total"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	PreferredDate *time.Time `bun:"preferred_date" json:"preferred_date,omitempty"`
	PreferredTime string     `bun:"preferred_time" json:"preferred_time,omitempty"`

	NotifySMS   bool `bun:"notify_sms,notnull,default:false" json:"notify_sms"`
	NotifyEmail bool `bun:"notify_email,notnull,default:false" json:"notify_email"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

// OrderItem snapshots the unit price at purchase time so later price
// changes don't rewrite order history.
type OrderItem struct {
	bun.BaseModel `bun:"table:store.order_items,alias:oi"`

	ID        int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderID   int64   `bun:"order_id,notnull" json:"order_id"`
	ProductID int64   `bun:"product_id,notnull" json:"product_id"`
	Quantity  int     `bun:"quantity,notnull" json:"quantity"`
	UnitPrice float64 `bun:"unit_price,notnull" json:"unit_price"`

	Product *Product `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
}
