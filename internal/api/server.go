// Package api provides the HTTP server for Bahi.
// It exposes the payment, OTP and ledger endpoints plus health and
// Prometheus metrics.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bahi-ledger/bahi/internal/app/otp"
	"github.com/bahi-ledger/bahi/internal/app/reconcile"
	"github.com/bahi-ledger/bahi/internal/app/reminder"
	"github.com/bahi-ledger/bahi/internal/domain"
)

// Server is the Bahi HTTP API server.
type Server struct {
	store          domain.LedgerStore
	reconciler     *reconcile.Reconciler
	sweeper        *reminder.Sweeper
	gate           *otp.Gate
	exposeOTP      bool // return issued codes in-band (non-production only)
	requireOTP     bool // customer registration needs a verified code
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(store domain.LedgerStore, rec *reconcile.Reconciler, sw *reminder.Sweeper, gate *otp.Gate) *Server {
	return &Server{store: store, reconciler: rec, sweeper: sw, gate: gate}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// ExposeOTPCodes makes /api/otp/send return the code in-band.
// For development and tests only — never enable in production.
func (s *Server) ExposeOTPCodes() { s.exposeOTP = true }

// RequireOTPForRegistration makes customer creation demand a verified
// one-time code for the customer's phone.
func (s *Server) RequireOTPForRegistration() { s.requireOTP = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Post("/order", s.handleCreateOrder)
			r.Post("/verify", s.handleVerifyPayment)
			r.Post("/manual", s.handleManualPayment)
		})

		r.Route("/otp", func(r chi.Router) {
			r.Post("/send", s.handleSendOTP)
			r.Post("/verify", s.handleVerifyOTP)
		})

		r.Post("/sweeper/run", s.handleRunSweep)

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", s.handleCreateCustomer)
			r.Get("/", s.handleListCustomers)
			r.Get("/{id}", s.handleGetCustomer)
			r.Get("/{id}/history", s.handlePaymentHistory)
			r.Get("/{id}/notifications", s.handleListNotifications)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", s.handleCreateSale)
			r.Get("/", s.handleListSales)
			r.Get("/{id}", s.handleGetSale)
			r.Delete("/{id}", s.handleCancelSale)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// writeDomainError maps a domain error onto its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrSaleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrNoPendingCode),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrCodeMismatch),
		errors.Is(err, domain.ErrSaleFinalized):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrSweepInProgress),
		errors.Is(err, domain.ErrCustomerExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGatewayDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
