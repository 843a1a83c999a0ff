// Package sqlite implements the ledger store on modernc.org/sqlite.
// One file per aggregate: customers, sales, notifications, payments.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection used by all store operations.
type DB struct {
	db *sql.DB
}

// Open creates (if needed) and opens the ledger database inside dir,
// applying all migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "bahi.db")
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite is single-writer; serialize access through one conn.
	conn.SetMaxOpenConns(1)

	db := &DB{db: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// migrate applies the schema. Each string is a single SQL statement
// (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			phone             TEXT NOT NULL UNIQUE,
			whatsapp_number   TEXT NOT NULL DEFAULT '',
			email             TEXT NOT NULL DEFAULT '',
			preferred_channel TEXT NOT NULL DEFAULT 'SMS',
			total_owed        INTEGER NOT NULL DEFAULT 0,
			last_transaction  TEXT,
			created_at        TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS payment_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id TEXT NOT NULL REFERENCES customers(id),
			sale_id     TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			date        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_customer ON payment_history(customer_id)`,

		`CREATE TABLE IF NOT EXISTS sales (
			id               TEXT PRIMARY KEY,
			customer_id      TEXT NOT NULL REFERENCES customers(id),
			amount           INTEGER NOT NULL,
			status           TEXT NOT NULL DEFAULT 'PENDING',
			date             TEXT NOT NULL,
			notes            TEXT NOT NULL DEFAULT '',
			payment_txn_id   TEXT,
			payment_method   TEXT,
			payment_date     TEXT,
			gateway_response TEXT,
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_status_date ON sales(status, date)`,

		`CREATE TABLE IF NOT EXISTS reminders (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id TEXT NOT NULL REFERENCES sales(id),
			sent_at TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			status  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_sale ON reminders(sale_id)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id          TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			message     TEXT NOT NULL,
			type        TEXT NOT NULL,
			channel     TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_customer ON notifications(customer_id)`,

		// Idempotency ledger: one row per processed gateway payment.
		`CREATE TABLE IF NOT EXISTS processed_payments (
			transaction_id TEXT PRIMARY KEY,
			sale_id        TEXT NOT NULL,
			processed_at   TEXT NOT NULL
		)`,
	}
}

// ─── Time Helpers ───────────────────────────────────────────────────────────
// All timestamps are stored as RFC 3339 UTC text.

func timeToDB(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func timeFromDB(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTimeFromDB(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return timeFromDB(s.String)
}
