// Package notify delivers order confirmations over SMS and email through
// a background job queue.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/storefront/catalog"
	"github.com/open-rails/storefront/identity"
)

// RetryDelay is the fixed wait between delivery attempts.
const RetryDelay = time.Minute

// MaxAttempts bounds delivery retries per order.
const MaxAttempts = 4

// OrderNotificationArgs is the job payload for one order's notifications.
type OrderNotificationArgs struct {
	OrderID int64 `json:"order_id"`
}

func (OrderNotificationArgs) Kind() string { return "order_notifications" }

func (OrderNotificationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: MaxAttempts}
}

// SMSSender sends a text message to one recipient.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// EmailSender sends a plain-text email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// OrderLoader loads an order with its items and products.
type OrderLoader interface {
	GetOrder(ctx context.Context, id int64) (*catalog.Order, error)
}

// CustomerDirectory resolves a customer record by primary key.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id int64) (*identity.Customer, error)
}

// DeliveryStatus records the outcome of an order's notification delivery.
type DeliveryStatus struct {
	OrderID   int64 `json:"order_id"`
	SMSSent   bool  `json:"sms_sent"`
	EmailSent bool  `json:"email_sent"`
	Attempts  int   `json:"attempts"`
}

// StatusRecorder persists delivery outcomes for the status endpoint.
type StatusRecorder interface {
	Put(ctx context.Context, status DeliveryStatus) error
}

// Deliverer sends all notifications for one order: the channels the
// customer opted into plus an admin copy. Send failures are terminal for
// the attempt but don't fail the job; only load failures retry.
type Deliverer struct {
	Orders     OrderLoader
	Customers  CustomerDirectory
	SMS        SMSSender
	Email      EmailSender
	Status     StatusRecorder
	AdminEmail string
	Log        logrus.FieldLogger
}

// Deliver runs one delivery attempt for the order.
func (d *Deliverer) Deliver(ctx context.Context, orderID int64, attempt int) error {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"order_id": orderID, "attempt": attempt})

	order, err := d.Orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return river.JobCancel(fmt.Errorf("notify: order %d no longer exists", orderID))
		}
		return fmt.Errorf("notify: load order %d: %w", orderID, err)
	}
	customer, err := d.Customers.FindByID(ctx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("notify: load customer %d: %w", order.CustomerID, err)
	}
	if customer == nil {
		return river.JobCancel(fmt.Errorf("notify: customer %d no longer exists", order.CustomerID))
	}

	status := DeliveryStatus{OrderID: orderID, Attempts: attempt}

	if order.NotifySMS && customer.Phone != "" && d.SMS != nil {
		if err := d.SMS.Send(ctx, customer.Phone, CustomerSMS(order, customer)); err != nil {
			log.WithError(err).Error("order sms failed")
		} else {
			status.SMSSent = true
		}
	}
	if order.NotifyEmail && customer.Email != "" && d.Email != nil {
		subject, body := CustomerEmail(order, customer)
		if err := d.Email.Send(ctx, customer.Email, subject, body); err != nil {
			log.WithError(err).Error("order email failed")
		} else {
			status.EmailSent = true
		}
	}
	if d.AdminEmail != "" && d.Email != nil {
		subject, body := AdminEmail(order, customer)
		if err := d.Email.Send(ctx, d.AdminEmail, subject, body); err != nil {
			log.WithError(err).Error("admin order email failed")
		}
	}

	if d.Status != nil {
		if err := d.Status.Put(ctx, status); err != nil {
			log.WithError(err).Warn("record notification status failed")
		}
	}

	log.WithFields(logrus.Fields{
		"sms_sent":   status.SMSSent,
		"email_sent": status.EmailSent,
	}).Info("order notifications delivered")
	return nil
}

// OrderNotificationWorker runs Deliverer under the job queue.
type OrderNotificationWorker struct {
	river.WorkerDefaults[OrderNotificationArgs]
	Deliverer *Deliverer
}

func (w *OrderNotificationWorker) Work(ctx context.Context, job *river.Job[OrderNotificationArgs]) error {
	return w.Deliverer.Deliver(ctx, job.Args.OrderID, job.Attempt)
}

// NextRetry spaces attempts a fixed minute apart instead of the default
// exponential backoff; order confirmations are useless if they arrive an
// hour late.
func (w *OrderNotificationWorker) NextRetry(*river.Job[OrderNotificationArgs]) time.Time {
	return time.Now().Add(RetryDelay)
}
