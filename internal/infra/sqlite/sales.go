package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Sale Operations ────────────────────────────────────────────────────────

// CreateSale inserts a sale and, when it is created unpaid, adds its
// amount to the customer's outstanding balance in the same transaction.
func (db *DB) CreateSale(ctx context.Context, s domain.Sale) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE id = ?`, s.CustomerID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrCustomerNotFound
	}

	var txnID, method, payDate, gwResp any
	if s.Payment != nil {
		txnID = s.Payment.TransactionID
		method = s.Payment.Method
		payDate = timeToDB(s.Payment.PaymentDate)
		gwResp = s.Payment.GatewayResponse
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, customer_id, amount, status, date, notes, payment_txn_id, payment_method, payment_date, gateway_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.CustomerID, s.Amount, string(s.Status), timeToDB(s.Date), s.Notes, txnID, method, payDate, gwResp, timeToDB(s.CreatedAt))
	if err != nil {
		return err
	}

	if s.Status.Unpaid() {
		_, err = tx.ExecContext(ctx, `
			UPDATE customers SET total_owed = total_owed + ?, last_transaction = ? WHERE id = ?
		`, s.Amount, timeToDB(s.Date), s.CustomerID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSale retrieves a sale with its reminder log.
func (db *DB) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	s, err := scanSaleRow(db.db.QueryRowContext(ctx, saleSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Reminders, err = db.saleReminders(ctx, s.ID)
	return s, err
}

// ListSales returns sales, optionally restricted to one customer,
// newest first.
func (db *DB) ListSales(ctx context.Context, customerID string) ([]domain.Sale, error) {
	query := saleSelect + ` ORDER BY date DESC`
	args := []any{}
	if customerID != "" {
		query = saleSelect + ` WHERE customer_id = ? ORDER BY date DESC`
		args = append(args, customerID)
	}
	return db.querySales(ctx, query, args...)
}

// CancelSale moves a sale to CANCELLED, removing its amount from the
// customer's balance when it was still unpaid.
func (db *DB) CancelSale(ctx context.Context, id string) (*domain.Sale, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := scanSaleRow(tx.QueryRowContext(ctx, saleSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, domain.ErrSaleFinalized
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sales SET status = ? WHERE id = ?`, string(domain.SaleCancelled), id); err != nil {
		return nil, err
	}
	if s.Status.Unpaid() {
		_, err = tx.ExecContext(ctx, `
			UPDATE customers SET total_owed = MAX(total_owed - ?, 0) WHERE id = ?
		`, s.Amount, s.CustomerID)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.Status = domain.SaleCancelled
	return s, nil
}

// OverduePending returns PENDING sales dated at or before cutoff,
// oldest first.
func (db *DB) OverduePending(ctx context.Context, cutoff time.Time) ([]domain.Sale, error) {
	return db.querySales(ctx, saleSelect+` WHERE status = ? AND date <= ? ORDER BY date`,
		string(domain.SalePending), timeToDB(cutoff))
}

// AppendReminder appends one entry to a sale's reminder log.
func (db *DB) AppendReminder(ctx context.Context, saleID string, r domain.ReminderRecord) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO reminders (sale_id, sent_at, channel, status) VALUES (?, ?, ?, ?)
	`, saleID, timeToDB(r.SentAt), string(r.Channel), string(r.Status))
	return err
}

// MarkOverdue transitions a sale from PENDING to OVERDUE. A sale that
// already left PENDING is left untouched.
func (db *DB) MarkOverdue(ctx context.Context, saleID string) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE sales SET status = ? WHERE id = ? AND status = ?
	`, string(domain.SaleOverdue), saleID, string(domain.SalePending))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Not an error: the sweep tolerates sales resolved mid-run.
		return nil
	}
	return nil
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

const saleSelect = `
	SELECT id, customer_id, amount, status, date, notes,
	       payment_txn_id, payment_method, payment_date, gateway_response, created_at
	FROM sales`

func scanSaleRow(row rowScanner) (*domain.Sale, error) {
	var s domain.Sale
	var status, dateStr, createdStr string
	var txnID, method, payDate, gwResp sql.NullString
	err := row.Scan(&s.ID, &s.CustomerID, &s.Amount, &status, &dateStr, &s.Notes,
		&txnID, &method, &payDate, &gwResp, &createdStr)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SaleStatus(status)
	s.Date = timeFromDB(dateStr)
	s.CreatedAt = timeFromDB(createdStr)
	if txnID.Valid && txnID.String != "" {
		s.Payment = &domain.PaymentRecord{
			TransactionID:   txnID.String,
			Method:          method.String,
			PaymentDate:     nullTimeFromDB(payDate),
			GatewayResponse: gwResp.String,
		}
	}
	return &s, nil
}

func (db *DB) querySales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Sale
	for rows.Next() {
		s, err := scanSaleRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Reminders, err = db.saleReminders(ctx, result[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load reminders for %s: %w", result[i].ID, err)
		}
	}
	return result, nil
}

func (db *DB) saleReminders(ctx context.Context, saleID string) ([]domain.ReminderRecord, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT sent_at, channel, status FROM reminders WHERE sale_id = ? ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReminderRecord
	for rows.Next() {
		var r domain.ReminderRecord
		var sentStr, channel, status string
		if err := rows.Scan(&sentStr, &channel, &status); err != nil {
			return nil, err
		}
		r.SentAt = timeFromDB(sentStr)
		r.Channel = domain.ContactChannel(channel)
		r.Status = domain.ReminderStatus(status)
		result = append(result, r)
	}
	return result, rows.Err()
}
