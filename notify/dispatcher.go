package notify

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/sirupsen/logrus"
)

// JobInserter is the slice of the river client the dispatcher needs.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

var _ JobInserter = (*river.Client[pgx.Tx])(nil)

// Dispatcher enqueues order notifications. When the queue is unreachable
// it falls back to a synchronous delivery attempt so a broken queue never
// silently drops confirmations.
type Dispatcher struct {
	queue     JobInserter
	deliverer *Deliverer
	log       logrus.FieldLogger
}

// NewDispatcher builds a dispatcher. queue may be nil, which makes every
// dispatch synchronous.
func NewDispatcher(queue JobInserter, deliverer *Deliverer, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{queue: queue, deliverer: deliverer, log: log}
}

// OrderPlaced schedules notification delivery for a new order.
func (d *Dispatcher) OrderPlaced(ctx context.Context, orderID int64) {
	if d.queue != nil {
		_, err := d.queue.Insert(ctx, OrderNotificationArgs{OrderID: orderID}, nil)
		if err == nil {
			return
		}
		d.log.WithError(err).WithField("order_id", orderID).
			Error("enqueue order notification failed, delivering inline")
	}

	if err := d.deliverer.Deliver(ctx, orderID, 1); err != nil {
		d.log.WithError(err).WithField("order_id", orderID).
			Error("inline order notification delivery failed")
	}
}
