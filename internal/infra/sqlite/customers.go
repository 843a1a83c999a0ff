package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Customer Operations ────────────────────────────────────────────────────

// CreateCustomer inserts a new customer. The phone number is unique;
// a duplicate fails with domain.ErrCustomerExists.
func (db *DB) CreateCustomer(ctx context.Context, c domain.Customer) error {
	var lastTxn any
	if !c.LastTransaction.IsZero() {
		lastTxn = timeToDB(c.LastTransaction)
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, whatsapp_number, email, preferred_channel, total_owed, last_transaction, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Phone, c.WhatsAppNumber, c.Email, string(c.PreferredChannel), c.TotalOwed, lastTxn, timeToDB(c.CreatedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return domain.ErrCustomerExists
	}
	return err
}

// GetCustomer retrieves a customer by ID.
func (db *DB) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return db.scanCustomer(db.db.QueryRowContext(ctx, `
		SELECT id, name, phone, whatsapp_number, email, preferred_channel, total_owed, last_transaction, created_at
		FROM customers WHERE id = ?
	`, id))
}

// GetCustomerByPhone retrieves a customer by phone number.
func (db *DB) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return db.scanCustomer(db.db.QueryRowContext(ctx, `
		SELECT id, name, phone, whatsapp_number, email, preferred_channel, total_owed, last_transaction, created_at
		FROM customers WHERE phone = ?
	`, phone))
}

// ListCustomers returns all customers ordered by name.
func (db *DB) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, phone, whatsapp_number, email, preferred_channel, total_owed, last_transaction, created_at
		FROM customers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomerRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// PaymentHistory returns a customer's payment history, newest first.
func (db *DB) PaymentHistory(ctx context.Context, customerID string) ([]domain.PaymentHistoryEntry, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT sale_id, amount, date FROM payment_history
		WHERE customer_id = ? ORDER BY id DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentHistoryEntry
	for rows.Next() {
		var e domain.PaymentHistoryEntry
		var dateStr string
		if err := rows.Scan(&e.SaleID, &e.Amount, &dateStr); err != nil {
			return nil, err
		}
		e.Date = timeFromDB(dateStr)
		result = append(result, e)
	}
	return result, rows.Err()
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomerRow(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	var channel string
	var lastTxn sql.NullString
	var createdStr string
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.WhatsAppNumber, &c.Email, &channel, &c.TotalOwed, &lastTxn, &createdStr)
	if err != nil {
		return nil, err
	}
	c.PreferredChannel = domain.ContactChannel(channel)
	c.LastTransaction = nullTimeFromDB(lastTxn)
	c.CreatedAt = timeFromDB(createdStr)
	return &c, nil
}

func (db *DB) scanCustomer(row *sql.Row) (*domain.Customer, error) {
	c, err := scanCustomerRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	return c, err
}
