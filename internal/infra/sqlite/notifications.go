package sqlite

import (
	"context"

	"github.com/bahi-ledger/bahi/internal/domain"
)

// ─── Notification Operations ────────────────────────────────────────────────
// Notifications are written once with their final dispatch status and
// never updated afterwards.

// CreateNotification inserts an audit record.
func (db *DB) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO notifications (id, customer_id, message, type, channel, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.CustomerID, n.Message, string(n.Type), string(n.Channel), string(n.Status), timeToDB(n.CreatedAt))
	return err
}

// ListNotifications returns notifications, optionally for one customer,
// newest first.
func (db *DB) ListNotifications(ctx context.Context, customerID string) ([]domain.Notification, error) {
	query := `
		SELECT id, customer_id, message, type, channel, status, created_at
		FROM notifications ORDER BY created_at DESC`
	args := []any{}
	if customerID != "" {
		query = `
		SELECT id, customer_id, message, type, channel, status, created_at
		FROM notifications WHERE customer_id = ? ORDER BY created_at DESC`
		args = append(args, customerID)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ, channel, status, createdStr string
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Message, &typ, &channel, &status, &createdStr); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		n.Channel = domain.ContactChannel(channel)
		n.Status = domain.NotificationStatus(status)
		n.CreatedAt = timeFromDB(createdStr)
		result = append(result, n)
	}
	return result, rows.Err()
}
