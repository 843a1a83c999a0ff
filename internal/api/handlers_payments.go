package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bahi-ledger/bahi/internal/app/reconcile"
	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Payment Handlers ───────────────────────────────────────────────────────
// Amounts cross the wire as rupee decimals (number or string) and are
// converted exactly to paise at this boundary.

// handleCreateOrder registers a gateway order for a sale.
// POST /api/payments/order
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SaleID   string          `json:"sale_id"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SaleID == "" {
		writeError(w, http.StatusBadRequest, "sale_id is required")
		return
	}

	var paise int64
	if req.Amount.Sign() > 0 {
		var err error
		if paise, err = domain.ToPaise(req.Amount); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	order, err := s.reconciler.CreateOrder(r.Context(), req.SaleID, paise, req.Currency)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "order": order})
}

// handleVerifyPayment applies a signed gateway confirmation.
// POST /api/payments/verify
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SaleID    string          `json:"sale_id"`
		OrderID   string          `json:"order_id"`
		PaymentID string          `json:"payment_id"`
		Signature string          `json:"signature"`
		Amount    decimal.Decimal `json:"amount"`
		Method    string          `json:"method"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SaleID == "" || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "sale_id, order_id, payment_id and signature are required")
		return
	}
	paise, err := domain.ToPaise(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.reconciler.ConfirmPayment(r.Context(), reconcile.ConfirmRequest{
		SaleID:    req.SaleID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Amount:    paise,
		Method:    req.Method,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sale":     res.Sale,
		"customer": res.Customer,
	})
}

// handleManualPayment records an operator-attested payment.
// POST /api/payments/manual
func (s *Server) handleManualPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SaleID string          `json:"sale_id"`
		Amount decimal.Decimal `json:"amount"`
		Method string          `json:"method"`
		Notes  string          `json:"notes"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SaleID == "" {
		writeError(w, http.StatusBadRequest, "sale_id is required")
		return
	}
	paise, err := domain.ToPaise(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.reconciler.ConfirmManualPayment(r.Context(), req.SaleID, paise, req.Method, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sale":     res.Sale,
		"customer": res.Customer,
	})
}

// handleRunSweep triggers one synchronous reminder sweep.
// POST /api/sweeper/run
func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	sum, err := s.sweeper.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": sum})
}
