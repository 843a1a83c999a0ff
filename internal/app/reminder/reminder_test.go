package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/sqlite"
)

type fakeMessenger struct {
	sent []domain.OutboundMessage
	fail bool
}

func (m *fakeMessenger) SendMessage(_ context.Context, msg domain.OutboundMessage) (domain.DispatchResult, error) {
	m.sent = append(m.sent, msg)
	if m.fail {
		return domain.DispatchResult{}, errors.New("provider down")
	}
	return domain.DispatchResult{Success: true, ProviderRef: "SM1"}, nil
}

func setup(t *testing.T) (*Sweeper, *sqlite.DB, *fakeMessenger) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	msg := &fakeMessenger{}
	return New(db, msg, 0), db, msg
}

func seedCustomer(t *testing.T, db *sqlite.DB, c domain.Customer) domain.Customer {
	t.Helper()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	if err := db.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func seedPendingSale(t *testing.T, db *sqlite.DB, customerID string, amount int64, age time.Duration) domain.Sale {
	t.Helper()
	s := domain.Sale{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
		Status:     domain.SalePending,
		Date:       time.Now().Add(-age),
		CreatedAt:  time.Now(),
	}
	if err := db.CreateSale(context.Background(), s); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return s
}

// ─── Sweep Tests ────────────────────────────────────────────────────────────

func TestSweep_WhatsAppScenario(t *testing.T) {
	sw, db, msg := setup(t)
	ctx := context.Background()

	c := seedCustomer(t, db, domain.Customer{
		Name:             "Meena Kirana",
		Phone:            "9876543210",
		WhatsAppNumber:   "9876543210",
		PreferredChannel: domain.ChannelWhatsApp,
	})
	s := seedPendingSale(t, db, c.ID, 50000, 31*24*time.Hour)

	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if sum.Examined != 1 || sum.Reminded != 1 || sum.Aged != 1 {
		t.Errorf("summary = %+v, want examined=1 reminded=1 aged=1", sum)
	}

	got, _ := db.GetSale(ctx, s.ID)
	if got.Status != domain.SaleOverdue {
		t.Errorf("sale status = %s, want OVERDUE", got.Status)
	}
	if len(got.Reminders) != 1 {
		t.Fatalf("reminders = %d, want 1", len(got.Reminders))
	}
	if got.Reminders[0].Channel != domain.ChannelWhatsApp || got.Reminders[0].Status != domain.ReminderSent {
		t.Errorf("reminder = %+v, want WHATSAPP/SENT", got.Reminders[0])
	}

	if len(msg.sent) != 1 || msg.sent[0].Channel != domain.ChannelWhatsApp {
		t.Fatalf("dispatched = %+v, want one WhatsApp message", msg.sent)
	}

	notes, _ := db.ListNotifications(ctx, c.ID)
	if len(notes) != 1 || notes[0].Type != domain.NotifyReminder || notes[0].Status != domain.NotificationSent {
		t.Errorf("notifications = %+v, want one SENT PAYMENT_REMINDER", notes)
	}
}

func TestSweep_SMSFallback(t *testing.T) {
	sw, db, msg := setup(t)

	// Prefers WhatsApp but has no WhatsApp number.
	c := seedCustomer(t, db, domain.Customer{
		Name:             "Sharma General Store",
		Phone:            "9000000001",
		PreferredChannel: domain.ChannelWhatsApp,
	})
	seedPendingSale(t, db, c.ID, 10000, 40*24*time.Hour)

	if _, err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(msg.sent) != 1 || msg.sent[0].Channel != domain.ChannelSMS {
		t.Fatalf("dispatched = %+v, want one SMS", msg.sent)
	}
	if msg.sent[0].To != "9000000001" {
		t.Errorf("To = %s, want 9000000001", msg.sent[0].To)
	}
}

func TestSweep_RecentSalesUntouched(t *testing.T) {
	sw, db, msg := setup(t)
	ctx := context.Background()

	c := seedCustomer(t, db, domain.Customer{Name: "New Credit", Phone: "9000000002", PreferredChannel: domain.ChannelSMS})
	s := seedPendingSale(t, db, c.ID, 10000, 5*24*time.Hour)

	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if sum.Examined != 0 {
		t.Errorf("examined = %d, want 0", sum.Examined)
	}
	if len(msg.sent) != 0 {
		t.Errorf("dispatched = %d, want 0", len(msg.sent))
	}
	got, _ := db.GetSale(ctx, s.ID)
	if got.Status != domain.SalePending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
}

func TestSweep_IdempotentRerun(t *testing.T) {
	sw, db, msg := setup(t)
	ctx := context.Background()

	c := seedCustomer(t, db, domain.Customer{Name: "Old Debt", Phone: "9000000003", PreferredChannel: domain.ChannelSMS})
	s := seedPendingSale(t, db, c.ID, 20000, 45*24*time.Hour)

	if _, err := sw.Sweep(ctx); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}

	// The sale is now OVERDUE, so an immediate re-run finds nothing.
	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if sum.Examined != 0 || sum.Reminded != 0 {
		t.Errorf("second sweep = %+v, want zero work", sum)
	}
	if len(msg.sent) != 1 {
		t.Errorf("total dispatches = %d, want 1 (single-attempt reminder)", len(msg.sent))
	}

	got, _ := db.GetSale(ctx, s.ID)
	if len(got.Reminders) != 1 {
		t.Errorf("reminders = %d, want 1", len(got.Reminders))
	}
}

func TestSweep_DispatchFailureStillAges(t *testing.T) {
	sw, db, msg := setup(t)
	msg.fail = true
	ctx := context.Background()

	c := seedCustomer(t, db, domain.Customer{Name: "Unreachable", Phone: "9000000004", PreferredChannel: domain.ChannelSMS})
	s := seedPendingSale(t, db, c.ID, 30000, 35*24*time.Hour)

	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if sum.Failed != 1 || sum.Aged != 1 {
		t.Errorf("summary = %+v, want failed=1 aged=1", sum)
	}

	got, _ := db.GetSale(ctx, s.ID)
	if got.Status != domain.SaleOverdue {
		t.Errorf("status = %s, want OVERDUE despite dispatch failure", got.Status)
	}
	if got.Reminders[0].Status != domain.ReminderFailed {
		t.Errorf("reminder status = %s, want FAILED", got.Reminders[0].Status)
	}

	notes, _ := db.ListNotifications(ctx, c.ID)
	if len(notes) != 1 || notes[0].Status != domain.NotificationFailed {
		t.Errorf("notifications = %+v, want one FAILED", notes)
	}
}

func TestSweep_NoChannelStillAges(t *testing.T) {
	sw, db, msg := setup(t)
	ctx := context.Background()

	// No phone, no WhatsApp: nothing to dispatch, but the sale still ages.
	c := seedCustomer(t, db, domain.Customer{Name: "Walk-in", Phone: "", PreferredChannel: domain.ChannelEmail})
	s := seedPendingSale(t, db, c.ID, 15000, 60*24*time.Hour)

	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if sum.Skipped != 1 || sum.Aged != 1 {
		t.Errorf("summary = %+v, want skipped=1 aged=1", sum)
	}
	if len(msg.sent) != 0 {
		t.Errorf("dispatched = %d, want 0", len(msg.sent))
	}

	got, _ := db.GetSale(ctx, s.ID)
	if got.Status != domain.SaleOverdue {
		t.Errorf("status = %s, want OVERDUE", got.Status)
	}
	if got.Reminders[0].Status != domain.ReminderSkipped {
		t.Errorf("reminder status = %s, want SKIPPED", got.Reminders[0].Status)
	}

	// A skipped dispatch leaves no notification audit record.
	notes, _ := db.ListNotifications(ctx, c.ID)
	if len(notes) != 0 {
		t.Errorf("notifications = %d, want 0", len(notes))
	}
}

func TestSweep_PerSaleFailureIsolated(t *testing.T) {
	sw, db, msg := setup(t)
	ctx := context.Background()

	bad := seedCustomer(t, db, domain.Customer{Name: "No Channel", Phone: "", PreferredChannel: domain.ChannelEmail})
	good := seedCustomer(t, db, domain.Customer{Name: "Reachable", Phone: "9000000005", PreferredChannel: domain.ChannelSMS})
	seedPendingSale(t, db, bad.ID, 5000, 90*24*time.Hour)
	s2 := seedPendingSale(t, db, good.ID, 7000, 31*24*time.Hour)

	sum, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if sum.Examined != 2 || sum.Reminded != 1 || sum.Skipped != 1 {
		t.Errorf("summary = %+v, want examined=2 reminded=1 skipped=1", sum)
	}
	if len(msg.sent) != 1 {
		t.Errorf("dispatched = %d, want 1", len(msg.sent))
	}
	got, _ := db.GetSale(ctx, s2.ID)
	if got.Status != domain.SaleOverdue {
		t.Errorf("reachable sale status = %s, want OVERDUE", got.Status)
	}
}

func TestSweep_OverlapGuard(t *testing.T) {
	sw, _, _ := setup(t)

	sw.running.Store(true)
	if _, err := sw.Sweep(context.Background()); !errors.Is(err, domain.ErrSweepInProgress) {
		t.Errorf("err = %v, want ErrSweepInProgress", err)
	}

	sw.running.Store(false)
	if _, err := sw.Sweep(context.Background()); err != nil {
		t.Errorf("Sweep after release: %v", err)
	}
}

// ─── Schedule Tests ─────────────────────────────────────────────────────────

func TestNextMonthlyRun(t *testing.T) {
	tests := []struct {
		now  string
		want string
	}{
		{"2025-01-15T12:00:00Z", "2025-02-01T02:00:00Z"},
		{"2025-12-31T23:59:00Z", "2026-01-01T02:00:00Z"},
		{"2025-02-01T01:00:00Z", "2025-03-01T02:00:00Z"},
	}

	for _, tt := range tests {
		now, err := time.Parse(time.RFC3339, tt.now)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.now, err)
		}
		got := nextMonthlyRun(now)
		want, _ := time.Parse(time.RFC3339, tt.want)
		if !got.Equal(want) {
			t.Errorf("nextMonthlyRun(%s) = %s, want %s", tt.now, got, want)
		}
	}
}
