package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

const notificationColumns = `n.id, n.recipient_id, n.type, n.title, n.message, n.is_read,
	n.event_id, n.registration_id, n.created_at`

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	var typ string
	var eventID, registrationID *string
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &n.IsRead,
		&eventID, &registrationID, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	if eventID != nil {
		n.EventID = *eventID
	}
	if registrationID != nil {
		n.RegistrationID = *registrationID
	}
	return &n, nil
}

// InsertNotification inserts a notification
func (d *queries) InsertNotification(ctx context.Context, n *model.Notification) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO notification (id, recipient_id, type, title, message, is_read, event_id, registration_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, n.IsRead,
		nullIfEmpty(n.EventID), nullIfEmpty(n.RegistrationID), n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", translateError(err))
	}
	return nil
}

// GetNotification retrieves a notification by id
func (d *queries) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	n, err := scanNotification(d.q.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notification n WHERE n.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", translateError(err))
	}
	return n, nil
}

// ListNotifications lists a recipient's notifications, newest first
func (d *queries) ListNotifications(ctx context.Context, filter db.NotificationFilter) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification n WHERE n.recipient_id = $1`
	args := []any{filter.RecipientID}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		query += ` AND n.is_read = $2`
	}
	query += ` ORDER BY n.created_at DESC, n.id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	return d.queryNotifications(ctx, query, args...)
}

// CountUnread counts the recipient's unread notifications
func (d *queries) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := d.q.QueryRow(ctx, `SELECT COUNT(*) FROM notification WHERE recipient_id = $1 AND NOT is_read`, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead sets the read flag
func (d *queries) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := d.q.Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark notification read: %w", db.ErrNoRows)
	}
	return nil
}

// MarkAllNotificationsRead sets the read flag on every unread notification of the recipient
func (d *queries) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := d.q.Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HasNotificationForRegistration reports whether a notification of the type exists for the registration
func (d *queries) HasNotificationForRegistration(ctx context.Context, registrationID string, typ model.NotificationType) (bool, error) {
	var exists bool
	err := d.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM notification WHERE registration_id = $1 AND type = $2)
	`, registrationID, string(typ)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	return exists, nil
}

// ListUndelivered lists notifications the email relay has not handled yet, oldest first
func (d *queries) ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification n
		WHERE NOT EXISTS (SELECT 1 FROM notification_delivery nd WHERE nd.notification_id = n.id)
		ORDER BY n.created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	return d.queryNotifications(ctx, query)
}

// RecordDelivery marks a notification as handled by the email relay
func (d *queries) RecordDelivery(ctx context.Context, notificationID string, status db.DeliveryStatus, at time.Time) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO notification_delivery (notification_id, status, delivered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (notification_id) DO NOTHING
	`, notificationID, string(status), at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

func (d *queries) queryNotifications(ctx context.Context, query string, args ...any) ([]model.Notification, error) {
	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}
