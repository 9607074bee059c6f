package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ErrEmptyOrder is returned when an order has no purchasable lines.
var ErrEmptyOrder = errors.New("catalog: order has no items")

// OrderLine is one requested product in a new order.
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID    int64
	Lines         []OrderLine
	PreferredDate *time.Time
	PreferredTime string
	NotifySMS     bool
	NotifyEmail   bool
}

// CreateOrder places an order atomically: the order row and all its item
// rows land in one transaction, with unit prices snapshotted from the
// current catalog.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	lines := make([]OrderLine, 0, len(in.Lines))
	ids := make([]int64, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			continue
		}
		lines = append(lines, l)
		ids = append(ids, l.ProductID)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{
		CustomerID:    in.CustomerID,
		Status:        OrderStatusPending,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		NotifySMS:     in.NotifySMS,
		NotifyEmail:   in.NotifyEmail,
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var products []*Product
		if err := tx.NewSelect().
			Model(&products).
			Where("p.id IN (?)", bun.In(ids)).
			Scan(ctx); err != nil {
			return fmt.Errorf("load order products: %w", err)
		}
		byID := make(map[int64]*Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		var total float64
		items := make([]*OrderItem, 0, len(lines))
		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", l.ProductID, ErrNotFound)
			}
			if !p.InStock {
				return fmt.Errorf("catalog: product %q is out of stock", p.SKU)
			}
			unit := p.EffectivePrice()
			total += unit * float64(l.Quantity)
			items = append(items, &OrderItem{
				ProductID: p.ID,
				Quantity:  l.Quantity,
				UnitPrice: unit,
			})
		}
		order.Total = total

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: create order: %w", err)
	}

	s.log.WithFields(map[string]any{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total":       order.Total,
	}).Info("order placed")
	return order, nil
}

// GetOrder loads an order with its items and their products.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	order := new(Order)
	err := s.db.NewSelect().
		Model(order).
		Relation("Items").
		Relation("Items.Product").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a customer's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, customerID int64) ([]*Order, error) {
	var orders []*Order
	err := s.db.NewSelect().
		Model(&orders).
		Relation("Items").
		Where("o.customer_id = ?", customerID).
		Order("o.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list orders: %w", err)
	}
	return orders, nil
}
