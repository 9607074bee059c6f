package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/storefront/catalog"
	"github.com/open-rails/storefront/identity"
)

type fakeOrders struct {
	order *catalog.Order
	err   error
}

func (f *fakeOrders) GetOrder(context.Context, int64) (*catalog.Order, error) {
	return f.order, f.err
}

type fakeCustomers struct {
	customer *identity.Customer
	err      error
}

func (f *fakeCustomers) FindByID(context.Context, int64) (*identity.Customer, error) {
	return f.customer, f.err
}

type fakeSMS struct {
	sent []string
	to   []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, message string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, message)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeEmail struct {
	sent []sentMail
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeStatus struct {
	last *DeliveryStatus
}

func (f *fakeStatus) Put(_ context.Context, status DeliveryStatus) error {
	f.last = &status
	return nil
}

func testOrder() *catalog.Order {
	return &catalog.Order{
		ID:          7,
		CustomerID:  3,
		Status:      catalog.OrderStatusPending,
		Total:       149.50,
		CreatedAt:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		NotifySMS:   true,
		NotifyEmail: true,
		Items: []*catalog.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: 49.75, Product: &catalog.Product{Name: "Hammer"}},
			{ProductID: 2, Quantity: 1, UnitPrice: 50.00, Product: &catalog.Product{Name: "Saw"}},
		},
	}
}

func testCustomer() *identity.Customer {
	return &identity.Customer{
		ID:         3,
		ExternalID: "auth0|abc",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+254700000001",
	}
}

func newDeliverer(orders *fakeOrders, customers *fakeCustomers, sms *fakeSMS, email *fakeEmail, status *fakeStatus) *Deliverer {
	return &Deliverer{
		Orders:     orders,
		Customers:  customers,
		SMS:        sms,
		Email:      email,
		Status:     status,
		AdminEmail: "admin@estore.com",
	}
}

func TestDeliverSendsAllChannels(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	status := &fakeStatus{}
	d := newDeliverer(&fakeOrders{order: testOrder()}, &fakeCustomers{customer: testCustomer()}, sms, email, status)

	err := d.Deliver(context.Background(), 7, 1)
	require.NoError(t, err)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+254700000001", sms.to[0])
	assert.Contains(t, sms.sent[0], "order #7")
	assert.Contains(t, sms.sent[0], "$149.50")

	require.Len(t, email.sent, 2)
	assert.Equal(t, "ada@example.com", email.sent[0].to)
	assert.Contains(t, email.sent[0].subject, "Order Confirmation #7")
	assert.Equal(t, "admin@estore.com", email.sent[1].to)
	assert.Contains(t, email.sent[1].subject, "Ada Lovelace")

	require.NotNil(t, status.last)
	assert.True(t, status.last.SMSSent)
	assert.True(t, status.last.EmailSent)
	assert.Equal(t, 1, status.last.Attempts)
}

func TestDeliverHonorsChannelOptOut(t *testing.T) {
	order := testOrder()
	order.NotifySMS = false
	sms := &fakeSMS{}
	email := &fakeEmail{}
	status := &fakeStatus{}
	d := newDeliverer(&fakeOrders{order: order}, &fakeCustomers{customer: testCustomer()}, sms, email, status)

	require.NoError(t, d.Deliver(context.Background(), 7, 1))
	assert.Empty(t, sms.sent)
	assert.False(t, status.last.SMSSent)
	assert.True(t, status.last.EmailSent)
}

func TestDeliverSkipsSMSWithoutPhone(t *testing.T) {
	customer := testCustomer()
	customer.Phone = ""
	sms := &fakeSMS{}
	d := newDeliverer(&fakeOrders{order: testOrder()}, &fakeCustomers{customer: customer}, sms, &fakeEmail{}, &fakeStatus{})

	require.NoError(t, d.Deliver(context.Background(), 7, 1))
	assert.Empty(t, sms.sent)
}

func TestDeliverMissingOrderCancelsJob(t *testing.T) {
	d := newDeliverer(&fakeOrders{err: catalog.ErrNotFound}, &fakeCustomers{}, &fakeSMS{}, &fakeEmail{}, &fakeStatus{})

	err := d.Deliver(context.Background(), 7, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no longer exists")
}

func TestDeliverLoadErrorRetries(t *testing.T) {
	d := newDeliverer(&fakeOrders{err: errors.New("connection refused")}, &fakeCustomers{}, &fakeSMS{}, &fakeEmail{}, &fakeStatus{})

	err := d.Deliver(context.Background(), 7, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load order")
}

func TestDeliverSendFailureDoesNotFailAttempt(t *testing.T) {
	sms := &fakeSMS{err: errors.New("gateway timeout")}
	status := &fakeStatus{}
	d := newDeliverer(&fakeOrders{order: testOrder()}, &fakeCustomers{customer: testCustomer()}, sms, &fakeEmail{}, status)

	require.NoError(t, d.Deliver(context.Background(), 7, 2))
	assert.False(t, status.last.SMSSent)
	assert.True(t, status.last.EmailSent)
	assert.Equal(t, 2, status.last.Attempts)
}

func TestWorkerNextRetryIsFixedDelay(t *testing.T) {
	w := &OrderNotificationWorker{}
	next := w.NextRetry(nil)
	assert.WithinDuration(t, time.Now().Add(RetryDelay), next, 2*time.Second)
}

func TestOrderNotificationArgs(t *testing.T) {
	args := OrderNotificationArgs{OrderID: 7}
	assert.Equal(t, "order_notifications", args.Kind())
	assert.Equal(t, MaxAttempts, args.InsertOpts().MaxAttempts)
}

func TestAdminEmailBody(t *testing.T) {
	subject, body := AdminEmail(testOrder(), testCustomer())
	assert.Contains(t, subject, "New Order #7")
	assert.Contains(t, subject, "$149.50")
	assert.Contains(t, body, "Hammer")
	assert.Contains(t, body, "total quantity: 3")
	assert.Contains(t, body, "SMS: Yes")
}

func TestCustomerEmailFallsBackToGenericName(t *testing.T) {
	customer := testCustomer()
	customer.FirstName = ""
	_, body := CustomerEmail(testOrder(), customer)
	assert.Contains(t, body, "Dear Customer,")
}
