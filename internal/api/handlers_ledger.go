package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Customer Handlers ──────────────────────────────────────────────────────

// handleCreateCustomer registers a customer. When OTP gating is on, the
// request must carry a code previously issued to the same phone.
// POST /api/customers
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name"`
		Phone            string `json:"phone"`
		WhatsAppNumber   string `json:"whatsapp_number"`
		Email            string `json:"email"`
		PreferredChannel string `json:"preferred_channel"`
		OTP              string `json:"otp"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !domain.ValidPhone(req.Phone) {
		writeDomainError(w, domain.ErrInvalidPhone)
		return
	}

	if s.requireOTP {
		if err := s.gate.Verify(r.Context(), req.Phone, req.OTP); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	channel := domain.ContactChannel(req.PreferredChannel)
	switch channel {
	case domain.ChannelSMS, domain.ChannelWhatsApp, domain.ChannelEmail:
	case "":
		channel = domain.ChannelSMS
	default:
		writeError(w, http.StatusBadRequest, "preferred_channel must be SMS, WHATSAPP or EMAIL")
		return
	}

	c := domain.Customer{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Phone:            req.Phone,
		WhatsAppNumber:   req.WhatsAppNumber,
		Email:            req.Email,
		PreferredChannel: channel,
		CreatedAt:        time.Now(),
	}
	if err := s.store.CreateCustomer(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleListCustomers returns all customers.
// GET /api/customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

// handleGetCustomer returns one customer.
// GET /api/customers/{id}
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handlePaymentHistory returns a customer's payment history.
// GET /api/customers/{id}/history
func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetCustomer(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	history, err := s.store.PaymentHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []domain.PaymentHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleListNotifications returns a customer's notification audit trail.
// GET /api/customers/{id}/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetCustomer(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	notifications, err := s.store.ListNotifications(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// ─── Sale Handlers ──────────────────────────────────────────────────────────

// handleCreateSale records a new sale. A credit sale starts PENDING and
// raises the customer's balance; paid=true records a settled cash sale.
// POST /api/sales
func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string          `json:"customer_id"`
		Amount     decimal.Decimal `json:"amount"`
		Date       time.Time       `json:"date"`
		Notes      string          `json:"notes"`
		Paid       bool            `json:"paid"`
		Method     string          `json:"method"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	paise, err := domain.ToPaise(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	sale := domain.Sale{
		ID:         uuid.NewString(),
		CustomerID: req.CustomerID,
		Amount:     paise,
		Status:     domain.SalePending,
		Date:       req.Date,
		Notes:      req.Notes,
		CreatedAt:  time.Now(),
	}
	if req.Paid {
		method := req.Method
		if method == "" {
			method = "cash"
		}
		sale.Status = domain.SalePaid
		sale.Payment = &domain.PaymentRecord{
			TransactionID: "pos_" + uuid.NewString(),
			Method:        method,
			PaymentDate:   req.Date,
		}
	}

	if err := s.store.CreateSale(r.Context(), sale); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// handleListSales returns sales, optionally filtered by customer.
// GET /api/sales?customer_id=...
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.store.ListSales(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	writeJSON(w, http.StatusOK, sales)
}

// handleGetSale returns one sale with its reminder log.
// GET /api/sales/{id}
func (s *Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := s.store.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// handleCancelSale cancels an unpaid sale, releasing its amount from
// the customer's balance.
// DELETE /api/sales/{id}
func (s *Server) handleCancelSale(w http.ResponseWriter, r *http.Request) {
	sale, err := s.store.CancelSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}
