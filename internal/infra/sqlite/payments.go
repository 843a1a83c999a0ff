package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Reconciliation ─────────────────────────────────────────────────────────

// ApplyPayment settles a sale in a single transaction: the sale becomes
// PAID with its payment record attached, a payment-history entry is
// appended, and the customer's totalOwed drops by amount (floored at
// zero) with lastTransactionDate stamped. The transaction ID is recorded
// in the idempotency ledger first; replaying an already-processed ID
// fails with domain.ErrAlreadyProcessed and mutates nothing.
func (db *DB) ApplyPayment(ctx context.Context, saleID string, amount int64, rec domain.PaymentRecord) (*domain.Sale, *domain.Customer, error) {
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	if rec.TransactionID == "" {
		return nil, nil, fmt.Errorf("payment record requires a transaction id")
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Idempotency gate. INSERT OR IGNORE + RowsAffected detects replays
	// without a separate read.
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_payments (transaction_id, sale_id, processed_at)
		VALUES (?, ?, ?)
	`, rec.TransactionID, saleID, timeToDB(time.Now()))
	if err != nil {
		return nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrAlreadyProcessed
	}

	sale, err := scanSaleRow(tx.QueryRowContext(ctx, saleSelect+` WHERE id = ?`, saleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	switch sale.Status {
	case domain.SalePaid:
		return nil, nil, domain.ErrAlreadyProcessed
	case domain.SaleCancelled:
		return nil, nil, domain.ErrSaleFinalized
	}

	// Sale write.
	if rec.PaymentDate.IsZero() {
		rec.PaymentDate = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE sales SET status = ?, payment_txn_id = ?, payment_method = ?, payment_date = ?, gateway_response = ?
		WHERE id = ?
	`, string(domain.SalePaid), rec.TransactionID, rec.Method, timeToDB(rec.PaymentDate), rec.GatewayResponse, saleID)
	if err != nil {
		return nil, nil, err
	}

	// Customer write: history append + balance decrement.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_history (customer_id, sale_id, amount, date) VALUES (?, ?, ?, ?)
	`, sale.CustomerID, saleID, amount, timeToDB(rec.PaymentDate))
	if err != nil {
		return nil, nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE customers SET total_owed = MAX(total_owed - ?, 0), last_transaction = ? WHERE id = ?
	`, amount, timeToDB(rec.PaymentDate), sale.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	customer, err := scanCustomerRow(tx.QueryRowContext(ctx, `
		SELECT id, name, phone, whatsapp_number, email, preferred_channel, total_owed, last_transaction, created_at
		FROM customers WHERE id = ?
	`, sale.CustomerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	sale.Status = domain.SalePaid
	sale.Payment = &rec
	return sale, customer, nil
}
