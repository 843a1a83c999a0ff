// Package reconcile turns payment confirmations into authoritative
// ledger state, exactly once per payment.
//
// The flow for a gateway confirmation:
//  1. Verify the gateway signature (sole trust boundary)
//  2. Load the sale
//  3. Best-effort fetch of gateway payment details for the audit trail
//  4. Apply the payment atomically (sale PAID + customer balance)
//  5. Best-effort receipt message to the customer
package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/observability"
)

// Reconciler applies payment confirmations to the ledger.
type Reconciler struct {
	store     domain.LedgerStore
	gateway   domain.PaymentGateway
	messenger domain.Messenger // optional; receipts skipped when nil
}

// New creates a reconciler.
func New(store domain.LedgerStore, gw domain.PaymentGateway, messenger domain.Messenger) *Reconciler {
	return &Reconciler{store: store, gateway: gw, messenger: messenger}
}

// Result is the post-confirmation state returned to the caller.
type Result struct {
	Sale     *domain.Sale     `json:"sale"`
	Customer *domain.Customer `json:"customer"`
}

// ─── Orders ─────────────────────────────────────────────────────────────────

// CreateOrder registers a gateway order for a sale. A zero amount means
// the sale's full amount.
func (r *Reconciler) CreateOrder(ctx context.Context, saleID string, amount int64, currency string) (*domain.Order, error) {
	sale, err := r.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status.Terminal() {
		return nil, domain.ErrSaleFinalized
	}
	if amount <= 0 {
		amount = sale.Amount
	}
	return r.gateway.CreateOrder(ctx, amount, currency, sale.ID)
}

// ─── Confirmation ───────────────────────────────────────────────────────────

// ConfirmRequest carries a gateway payment confirmation.
type ConfirmRequest struct {
	SaleID    string
	OrderID   string
	PaymentID string
	Signature string
	Amount    int64 // paise
	Method    string
}

// ConfirmPayment verifies and applies a gateway confirmation. An invalid
// signature fails with domain.ErrInvalidSignature before any mutation;
// a replayed payment ID fails with domain.ErrAlreadyProcessed.
func (r *Reconciler) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*Result, error) {
	if !r.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		observability.SignatureFailures.Inc()
		log.Printf("reconcile: SECURITY bad signature for order=%s payment=%s sale=%s",
			req.OrderID, req.PaymentID, req.SaleID)
		return nil, domain.ErrInvalidSignature
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	if _, err := r.store.GetSale(ctx, req.SaleID); err != nil {
		return nil, err
	}

	// Audit metadata from the gateway. Non-fatal: confirmation proceeds
	// on the verified signature alone.
	gatewayResponse := ""
	if details, err := r.gateway.FetchPayment(ctx, req.PaymentID); err != nil {
		log.Printf("reconcile: fetch payment %s details: %v", req.PaymentID, err)
	} else {
		gatewayResponse = fmt.Sprintf("method=%s status=%s", details.Method, details.Status)
		if req.Method == "" {
			req.Method = details.Method
		}
	}

	method := req.Method
	if method == "" {
		method = "gateway"
	}
	return r.apply(ctx, req.SaleID, req.Amount, domain.PaymentRecord{
		TransactionID:   req.PaymentID,
		Method:          method,
		PaymentDate:     time.Now(),
		GatewayResponse: gatewayResponse,
	})
}

// ConfirmManualPayment records an operator-attested payment (cash, bank
// transfer). No gateway verification: the caller's authorization is the
// access layer's concern.
func (r *Reconciler) ConfirmManualPayment(ctx context.Context, saleID string, amount int64, method, notes string) (*Result, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if method == "" {
		method = "cash"
	}
	return r.apply(ctx, saleID, amount, domain.PaymentRecord{
		TransactionID:   "manual_" + uuid.NewString(),
		Method:          method,
		PaymentDate:     time.Now(),
		GatewayResponse: notes,
	})
}

// apply performs the atomic ledger mutation and the best-effort receipt.
func (r *Reconciler) apply(ctx context.Context, saleID string, amount int64, rec domain.PaymentRecord) (*Result, error) {
	sale, customer, err := r.store.ApplyPayment(ctx, saleID, amount, rec)
	if err != nil {
		if err == domain.ErrAlreadyProcessed {
			observability.PaymentReplays.Inc()
		}
		return nil, err
	}

	observability.PaymentsConfirmed.WithLabelValues(rec.Method).Inc()
	observability.PaymentAmountPaise.Add(float64(amount))
	log.Printf("reconcile: sale %s paid %s via %s, customer %s now owes %s",
		sale.ID, domain.FormatRupees(amount), rec.Method, customer.ID, domain.FormatRupees(customer.TotalOwed))

	r.sendReceipt(ctx, sale, customer, amount)
	return &Result{Sale: sale, Customer: customer}, nil
}

// sendReceipt dispatches a payment receipt. Failure never fails the
// confirmation; the outcome lands in the notification audit trail.
func (r *Reconciler) sendReceipt(ctx context.Context, sale *domain.Sale, customer *domain.Customer, amount int64) {
	if r.messenger == nil {
		return
	}

	channel, to := domain.ChannelSMS, customer.Phone
	if customer.PreferredChannel == domain.ChannelWhatsApp && customer.WhatsAppNumber != "" {
		channel, to = domain.ChannelWhatsApp, customer.WhatsAppNumber
	}
	if to == "" {
		return
	}

	body := fmt.Sprintf("Payment of ₹%s received for your purchase on %s. Outstanding balance: ₹%s. Thank you!",
		domain.FormatRupees(amount), sale.Date.Format("02 Jan 2006"), domain.FormatRupees(customer.TotalOwed))

	status := domain.NotificationSent
	if _, err := r.messenger.SendMessage(ctx, domain.OutboundMessage{Channel: channel, To: to, Body: body}); err != nil {
		log.Printf("reconcile: receipt to customer %s failed: %v", customer.ID, err)
		status = domain.NotificationFailed
	}

	n := domain.Notification{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Message:    body,
		Type:       domain.NotifyReceipt,
		Channel:    channel,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	if err := r.store.CreateNotification(ctx, n); err != nil {
		log.Printf("reconcile: record receipt notification: %v", err)
	}
}
