package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// LedgerStore abstracts persistent customer/sale/notification storage.
// There is exactly one store per process, injected at construction time —
// business logic never branches on connection state.
type LedgerStore interface {
	// Customers
	CreateCustomer(ctx context.Context, c Customer) error
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	PaymentHistory(ctx context.Context, customerID string) ([]PaymentHistoryEntry, error)

	// Sales
	CreateSale(ctx context.Context, s Sale) error
	GetSale(ctx context.Context, id string) (*Sale, error)
	ListSales(ctx context.Context, customerID string) ([]Sale, error)
	CancelSale(ctx context.Context, id string) (*Sale, error)
	// OverduePending returns PENDING sales with date <= cutoff,
	// oldest first. The sweeper resolves each sale's customer itself.
	OverduePending(ctx context.Context, cutoff time.Time) ([]Sale, error)
	AppendReminder(ctx context.Context, saleID string, r ReminderRecord) error
	MarkOverdue(ctx context.Context, saleID string) error

	// Reconciliation. ApplyPayment atomically marks the sale PAID,
	// attaches the payment record, appends the customer's history entry,
	// decrements totalOwed (floored at zero) and stamps
	// lastTransactionDate. A repeated transactionID fails with
	// ErrAlreadyProcessed and mutates nothing.
	ApplyPayment(ctx context.Context, saleID string, amount int64, rec PaymentRecord) (*Sale, *Customer, error)

	// Notifications
	CreateNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, customerID string) ([]Notification, error)
}

// PaymentGateway abstracts the third-party payment processor.
type PaymentGateway interface {
	// CreateOrder registers an order with the gateway.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)

	// FetchPayment retrieves captured-payment metadata for auditing.
	FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error)

	// VerifySignature checks the gateway's HMAC over "orderID|paymentID".
	VerifySignature(orderID, paymentID, signature string) bool
}

// Messenger abstracts the SMS/WhatsApp provider.
type Messenger interface {
	SendMessage(ctx context.Context, msg OutboundMessage) (DispatchResult, error)
}
