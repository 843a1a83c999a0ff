// Package observability defines the Prometheus metrics for the ledger
// core: reconciliation, reminder sweeps and the OTP gate.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Reconciliation Metrics ─────────────────────────────────────────────────

// PaymentsConfirmed tracks successful payment confirmations by method.
var PaymentsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "payments",
	Name:      "confirmed_total",
	Help:      "Total payments confirmed and applied to the ledger.",
}, []string{"method"})

// PaymentAmountPaise tracks the total confirmed amount in paise.
var PaymentAmountPaise = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "payments",
	Name:      "amount_paise_total",
	Help:      "Total confirmed payment amount in paise.",
})

// SignatureFailures tracks rejected gateway signatures.
// Security relevant: every increment is also logged.
var SignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "payments",
	Name:      "signature_failures_total",
	Help:      "Total payment confirmations rejected for a bad signature.",
})

// PaymentReplays tracks replayed payment confirmations.
var PaymentReplays = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "payments",
	Name:      "replays_total",
	Help:      "Total payment confirmations rejected as already processed.",
})

// ─── Sweeper Metrics ────────────────────────────────────────────────────────

// SweepsRun tracks completed reminder sweeps.
var SweepsRun = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "sweeper",
	Name:      "runs_total",
	Help:      "Total completed reminder sweeps.",
})

// RemindersDispatched tracks reminder outcomes by channel and status.
var RemindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "sweeper",
	Name:      "reminders_total",
	Help:      "Total reminder dispatch attempts by channel and status.",
}, []string{"channel", "status"})

// SalesAged tracks sales promoted from PENDING to OVERDUE.
var SalesAged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "sweeper",
	Name:      "sales_aged_total",
	Help:      "Total sales aged from PENDING to OVERDUE.",
})

// ─── OTP Metrics ────────────────────────────────────────────────────────────

// OTPIssued tracks issued one-time codes.
var OTPIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "otp",
	Name:      "issued_total",
	Help:      "Total one-time codes issued.",
})

// OTPVerifications tracks verification attempts by outcome.
var OTPVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bahi",
	Subsystem: "otp",
	Name:      "verifications_total",
	Help:      "Total OTP verification attempts by outcome.",
}, []string{"outcome"})
