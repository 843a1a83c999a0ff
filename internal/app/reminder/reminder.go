// Package reminder implements the scheduled sweep that ages unpaid
// sales into OVERDUE and notifies their customers.
//
// A sale gets exactly one reminder attempt: once examined it leaves the
// PENDING bucket regardless of dispatch outcome, so re-running a sweep
// never re-notifies. Per-sale failures are isolated — one bad record
// never blocks the batch.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/observability"
)

// DefaultOverdueAfter is how old a PENDING sale must be before it is
// swept into OVERDUE.
const DefaultOverdueAfter = 30 * 24 * time.Hour

// Sweeper scans for stale PENDING sales and processes each one.
type Sweeper struct {
	store        domain.LedgerStore
	messenger    domain.Messenger // optional; all dispatches skipped when nil
	overdueAfter time.Duration
	running      atomic.Bool // sweeps never overlap
	now          func() time.Time
}

// New creates a sweeper. overdueAfter <= 0 selects the 30-day default.
func New(store domain.LedgerStore, messenger domain.Messenger, overdueAfter time.Duration) *Sweeper {
	if overdueAfter <= 0 {
		overdueAfter = DefaultOverdueAfter
	}
	return &Sweeper{
		store:        store,
		messenger:    messenger,
		overdueAfter: overdueAfter,
		now:          time.Now,
	}
}

// Summary reports what one sweep did.
type Summary struct {
	Examined   int       `json:"examined"`
	Reminded   int       `json:"reminded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"` // no reachable channel
	Aged       int       `json:"aged"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sweep runs one synchronous sweep. A sweep already in progress —
// scheduled or manual — is not overlapped; the caller gets
// domain.ErrSweepInProgress instead.
func (s *Sweeper) Sweep(ctx context.Context) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepInProgress
	}
	defer s.running.Store(false)

	sum := &Summary{StartedAt: s.now()}
	cutoff := s.now().Add(-s.overdueAfter)

	sales, err := s.store.OverduePending(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select overdue sales: %w", err)
	}

	for _, sale := range sales {
		sum.Examined++
		if err := s.process(ctx, sale, sum); err != nil {
			log.Printf("reminder: sale %s: %v", sale.ID, err)
		}
	}

	sum.FinishedAt = s.now()
	observability.SweepsRun.Inc()
	log.Printf("reminder: sweep done: examined=%d reminded=%d failed=%d skipped=%d aged=%d",
		sum.Examined, sum.Reminded, sum.Failed, sum.Skipped, sum.Aged)
	return sum, nil
}

// process handles one eligible sale: notify, record, age.
func (s *Sweeper) process(ctx context.Context, sale domain.Sale, sum *Summary) error {
	customer, err := s.store.GetCustomer(ctx, sale.CustomerID)
	if err != nil {
		// Orphaned sale: leave it for operator cleanup, keep sweeping.
		return fmt.Errorf("load customer %s: %w", sale.CustomerID, err)
	}

	rec := domain.ReminderRecord{SentAt: s.now(), Status: domain.ReminderSkipped}
	channel, to := pickChannel(customer)
	if channel == "" {
		sum.Skipped++
		observability.RemindersDispatched.WithLabelValues("none", string(domain.ReminderSkipped)).Inc()
	} else {
		rec.Channel = channel
		rec.Status = s.dispatch(ctx, sale, customer, channel, to)
		switch rec.Status {
		case domain.ReminderSent:
			sum.Reminded++
		case domain.ReminderFailed:
			sum.Failed++
		}
		observability.RemindersDispatched.WithLabelValues(string(channel), string(rec.Status)).Inc()
	}

	if err := s.store.AppendReminder(ctx, sale.ID, rec); err != nil {
		return fmt.Errorf("append reminder: %w", err)
	}

	// Aging happens once examined, independent of dispatch outcome.
	if err := s.store.MarkOverdue(ctx, sale.ID); err != nil {
		return fmt.Errorf("mark overdue: %w", err)
	}
	sum.Aged++
	observability.SalesAged.Inc()
	return nil
}

// dispatch sends the templated reminder and records the audit
// notification with the same status.
func (s *Sweeper) dispatch(ctx context.Context, sale domain.Sale, customer *domain.Customer, channel domain.ContactChannel, to string) domain.ReminderStatus {
	body := fmt.Sprintf("Namaste %s! Your payment of ₹%s for the purchase on %s is pending. Please clear it at your convenience.",
		customer.Name, domain.FormatRupees(sale.Amount), sale.Date.Format("02 Jan 2006"))

	status := domain.ReminderSent
	notifStatus := domain.NotificationSent
	if s.messenger == nil {
		status, notifStatus = domain.ReminderFailed, domain.NotificationFailed
	} else if _, err := s.messenger.SendMessage(ctx, domain.OutboundMessage{Channel: channel, To: to, Body: body}); err != nil {
		log.Printf("reminder: dispatch %s to customer %s failed: %v", channel, customer.ID, err)
		status, notifStatus = domain.ReminderFailed, domain.NotificationFailed
	}

	n := domain.Notification{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Message:    body,
		Type:       domain.NotifyReminder,
		Channel:    channel,
		Status:     notifStatus,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Printf("reminder: record notification for customer %s: %v", customer.ID, err)
	}
	return status
}

// pickChannel chooses where to send a customer's reminder:
// WhatsApp when preferred and a number exists, else SMS when a phone
// exists, else nothing.
func pickChannel(c *domain.Customer) (domain.ContactChannel, string) {
	if c.PreferredChannel == domain.ChannelWhatsApp && c.WhatsAppNumber != "" {
		return domain.ChannelWhatsApp, c.WhatsAppNumber
	}
	if c.Phone != "" {
		return domain.ChannelSMS, c.Phone
	}
	return "", ""
}

// ─── Scheduling ─────────────────────────────────────────────────────────────

// Start runs the monthly sweep loop until ctx is cancelled. The first
// sweep fires at the start of the next calendar month.
func (s *Sweeper) Start(ctx context.Context) {
	for {
		next := nextMonthlyRun(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Printf("reminder: scheduled sweep: %v", err)
			}
		}
	}
}

// nextMonthlyRun returns the first of the following month, 02:00 local.
func nextMonthlyRun(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 2, 0, 0, 0, t.Location())
}
