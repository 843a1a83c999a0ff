// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Customer ───────────────────────────────────────────────────────────────

// ContactChannel is a customer's reachable notification channel.
type ContactChannel string

const (
	ChannelSMS      ContactChannel = "SMS"
	ChannelWhatsApp ContactChannel = "WHATSAPP"
	ChannelEmail    ContactChannel = "EMAIL"
)

// Customer is a shop customer who may carry outstanding credit.
type Customer struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"` // unique, 10 digits
	WhatsAppNumber   string         `json:"whatsapp_number,omitempty"`
	Email            string         `json:"email,omitempty"`
	PreferredChannel ContactChannel `json:"preferred_channel"`
	TotalOwed        int64          `json:"total_owed"` // paise
	LastTransaction  time.Time      `json:"last_transaction,omitzero"`
	CreatedAt        time.Time      `json:"created_at"`
}

// PaymentHistoryEntry is one settled payment in a customer's history.
// The history is append-only.
type PaymentHistoryEntry struct {
	SaleID string    `json:"sale_id"`
	Amount int64     `json:"amount"` // paise
	Date   time.Time `json:"date"`
}

// ─── Sale ───────────────────────────────────────────────────────────────────

// SaleStatus is the lifecycle state of a sale.
// PENDING → PAID (reconciler) or PENDING → OVERDUE (sweeper);
// OVERDUE → PAID is still allowed. PAID and CANCELLED are terminal.
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SalePaid      SaleStatus = "PAID"
	SaleOverdue   SaleStatus = "OVERDUE"
	SaleCancelled SaleStatus = "CANCELLED"
)

// Unpaid reports whether the status still counts toward totalOwed.
func (s SaleStatus) Unpaid() bool { return s == SalePending || s == SaleOverdue }

// Terminal reports whether no further transition is allowed.
func (s SaleStatus) Terminal() bool { return s == SalePaid || s == SaleCancelled }

// Sale is a single credit (or cash) transaction owed by a customer.
// A sale references its customer by ID; it does not own it.
type Sale struct {
	ID         string           `json:"id"`
	CustomerID string           `json:"customer_id"`
	Amount     int64            `json:"amount"` // paise, positive
	Status     SaleStatus       `json:"status"`
	Date       time.Time        `json:"date"`
	Payment    *PaymentRecord   `json:"payment,omitempty"`
	Reminders  []ReminderRecord `json:"reminders,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// PaymentRecord captures how a sale was settled.
type PaymentRecord struct {
	TransactionID   string    `json:"transaction_id"`
	Method          string    `json:"method"` // upi, card, cash, bank_transfer, ...
	PaymentDate     time.Time `json:"payment_date"`
	GatewayResponse string    `json:"gateway_response,omitempty"`
}

// ReminderStatus is the outcome of one reminder dispatch attempt.
type ReminderStatus string

const (
	ReminderSent    ReminderStatus = "SENT"
	ReminderFailed  ReminderStatus = "FAILED"
	ReminderSkipped ReminderStatus = "SKIPPED" // no reachable channel
)

// ReminderRecord is one entry in a sale's append-only reminder log.
type ReminderRecord struct {
	SentAt  time.Time      `json:"sent_at"`
	Channel ContactChannel `json:"channel,omitempty"`
	Status  ReminderStatus `json:"status"`
}

// ─── Notification ───────────────────────────────────────────────────────────

// NotificationType classifies the business reason for a notification.
type NotificationType string

const (
	NotifyOTP      NotificationType = "OTP"
	NotifyReminder NotificationType = "PAYMENT_REMINDER"
	NotifyReceipt  NotificationType = "RECEIPT"
)

// NotificationStatus is the dispatch outcome of a notification.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// Notification is an immutable audit record of an outbound message.
// The status is set once by the dispatch result.
type Notification struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	Message    string             `json:"message"`
	Type       NotificationType   `json:"type"`
	Channel    ContactChannel     `json:"channel"`
	Status     NotificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ─── Gateway ────────────────────────────────────────────────────────────────

// Order is a payment-gateway order handle.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// PaymentDetails is audit metadata fetched from the gateway for a
// captured payment. Best effort — confirmation never depends on it.
type PaymentDetails struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id,omitempty"`
	Method  string `json:"method,omitempty"`
	Status  string `json:"status,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// ─── Messaging ──────────────────────────────────────────────────────────────

// OutboundMessage is a single message handed to the messaging provider.
type OutboundMessage struct {
	Channel ContactChannel
	To      string
	Body    string
}

// DispatchResult is the provider's answer for one message.
type DispatchResult struct {
	Success     bool
	ProviderRef string
}
