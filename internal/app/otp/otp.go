// Package otp implements the one-time-code gate used to prove phone
// possession before sensitive unauthenticated actions (customer
// registration). Codes are 4 digits, live for a configurable TTL, and
// are single use: at most one live code per phone, consumed or expired
// entries are removed.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/observability"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

// Entry is one live code for a phone.
type Entry struct {
	Code      string
	ExpiresAt time.Time
}

// Store is a keyed code store. The gate serializes issue/verify per
// process; a multi-instance deployment swaps in a shared store with
// native TTL and its own atomicity.
type Store interface {
	Set(ctx context.Context, phone string, e Entry) error
	Get(ctx context.Context, phone string) (*Entry, error) // nil when absent
	Delete(ctx context.Context, phone string) error
}

// ─── In-Process Store ───────────────────────────────────────────────────────

// MemoryStore keeps codes in process memory with lazy expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Set stores e for phone, overwriting any prior entry.
func (s *MemoryStore) Set(_ context.Context, phone string, e Entry) error {
	s.mu.Lock()
	s.entries[phone] = e
	s.mu.Unlock()
	return nil
}

// Get returns the live entry for phone, or nil.
func (s *MemoryStore) Get(_ context.Context, phone string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[phone]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Delete removes the entry for phone.
func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	delete(s.entries, phone)
	s.mu.Unlock()
	return nil
}

// ─── Gate ───────────────────────────────────────────────────────────────────

// Gate issues and verifies one-time codes.
type Gate struct {
	mu        sync.Mutex // issue/verify are atomic per process
	store     Store
	ledger    domain.LedgerStore // optional, for notification audit records
	messenger domain.Messenger   // optional in tests
	ttl       time.Duration
	now       func() time.Time
}

// New creates an OTP gate. ledger and messenger may be nil; dispatch and
// audit records are then skipped.
func New(store Store, ledger domain.LedgerStore, messenger domain.Messenger, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Gate{
		store:     store,
		ledger:    ledger,
		messenger: messenger,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue generates a code for phone, overwriting any prior live entry
// (single flight per phone), dispatches it over SMS, and returns it.
// Whether the code is ever exposed to the caller is the handler's
// decision, governed by configuration.
func (g *Gate) Issue(ctx context.Context, phone string) (string, error) {
	if !domain.ValidPhone(phone) {
		return "", domain.ErrInvalidPhone
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	g.mu.Lock()
	err = g.store.Set(ctx, phone, Entry{Code: code, ExpiresAt: g.now().Add(g.ttl)})
	g.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	observability.OTPIssued.Inc()

	g.dispatch(ctx, phone, code)
	return code, nil
}

// Verify checks code against the live entry for phone. Success consumes
// the entry; an expired entry is purged.
func (g *Gate) Verify(ctx context.Context, phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, err := g.store.Get(ctx, phone)
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if entry == nil {
		observability.OTPVerifications.WithLabelValues("no_pending").Inc()
		return domain.ErrNoPendingCode
	}
	if g.now().After(entry.ExpiresAt) {
		g.store.Delete(ctx, phone)
		observability.OTPVerifications.WithLabelValues("expired").Inc()
		return domain.ErrCodeExpired
	}
	if entry.Code != code {
		observability.OTPVerifications.WithLabelValues("mismatch").Inc()
		return domain.ErrCodeMismatch
	}

	if err := g.store.Delete(ctx, phone); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	observability.OTPVerifications.WithLabelValues("ok").Inc()
	return nil
}

// dispatch sends the code over SMS and records the audit notification.
// Failures are logged, never surfaced: the code is already issued.
func (g *Gate) dispatch(ctx context.Context, phone, code string) {
	if g.messenger == nil {
		return
	}

	msg := domain.OutboundMessage{
		Channel: domain.ChannelSMS,
		To:      phone,
		Body:    fmt.Sprintf("Your Bahi verification code is %s. It expires in %d minutes.", code, int(g.ttl.Minutes())),
	}
	status := domain.NotificationSent
	if _, err := g.messenger.SendMessage(ctx, msg); err != nil {
		log.Printf("otp: dispatch to %s failed: %v", phone, err)
		status = domain.NotificationFailed
	}

	if g.ledger == nil {
		return
	}
	customer, err := g.ledger.GetCustomerByPhone(ctx, phone)
	if err != nil {
		// Pre-registration phones have no customer yet; nothing to audit.
		return
	}
	n := domain.Notification{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Message:    "Verification code sent",
		Type:       domain.NotifyOTP,
		Channel:    domain.ChannelSMS,
		Status:     status,
		CreatedAt:  g.now(),
	}
	if err := g.ledger.CreateNotification(ctx, n); err != nil {
		log.Printf("otp: record notification for %s: %v", phone, err)
	}
}

// generateCode returns a uniform random 4-digit code in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
