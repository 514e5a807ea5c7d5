package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// DefaultLatestLimit is how many unread notifications the polling endpoint returns
const DefaultLatestLimit = 5

// NotificationParams describes a notice to emit
type NotificationParams struct {
	RecipientID    string
	Type           model.NotificationType
	Title          string
	Message        string
	EventID        string
	RegistrationID string
}

// Emit creates a notification. It performs no business validation; when called with
// transaction queries the notice commits or rolls back with the triggering change.
func Emit(ctx context.Context, q db.NotificationStore, params NotificationParams) (*model.Notification, error) {
	n := &model.Notification{
		ID:             uuid.New().String(),
		RecipientID:    params.RecipientID,
		Type:           params.Type,
		Title:          params.Title,
		Message:        params.Message,
		EventID:        params.EventID,
		RegistrationID: params.RegistrationID,
		CreatedAt:      now(),
	}
	if err := q.InsertNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to emit %s notification: %w", params.Type, err)
	}
	return n, nil
}

// MarkRead sets the read flag on one of the actor's notifications.
// Notifications of other recipients are reported as not found.
func MarkRead(ctx context.Context, store db.NotificationStore, logger *zap.Logger, notificationID, actorID string) (*model.Notification, error) {
	n, err := store.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, notFoundAs(err, "notification")
	}
	if n.RecipientID != actorID {
		logger.Debug("Notification belongs to another recipient",
			zap.String("notification_id", notificationID),
			zap.String("actor_id", actorID))
		return nil, fmt.Errorf("notification: %w", model.ErrNotFound)
	}
	if n.IsRead {
		return n, nil
	}

	if err := store.MarkNotificationRead(ctx, n.ID); err != nil {
		return nil, notFoundAs(err, "notification")
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead marks every unread notification of the actor as read
func MarkAllRead(ctx context.Context, store db.NotificationStore, logger *zap.Logger, actorID string) (int64, error) {
	updated, err := store.MarkAllNotificationsRead(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	logger.Debug("Marked notifications read", zap.String("actor_id", actorID), zap.Int64("count", updated))
	return updated, nil
}

// UnreadCount returns how many unread notifications the actor has
func UnreadCount(ctx context.Context, store db.NotificationStore, actorID string) (int, error) {
	count, err := store.CountUnread(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// LatestUnread returns the actor's newest unread notifications. limit <= 0 means DefaultLatestLimit.
func LatestUnread(ctx context.Context, store db.NotificationStore, actorID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	unread := false
	list, err := store.ListNotifications(ctx, db.NotificationFilter{RecipientID: actorID, Read: &unread, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return list, nil
}

// ReadFilter selects notifications by read state for the notification list
type ReadFilter string

const (
	ReadFilterAll    ReadFilter = "all"
	ReadFilterUnread ReadFilter = "unread"
	ReadFilterRead   ReadFilter = "read"
)

// NotificationList is the actor's notification page
type NotificationList struct {
	Notifications []model.Notification
	UnreadCount   int
	Filter        ReadFilter
}

// ListNotifications lists the actor's notifications newest first. Unknown filters mean all.
func ListNotifications(ctx context.Context, store db.NotificationStore, actorID string, filter ReadFilter) (*NotificationList, error) {
	f := db.NotificationFilter{RecipientID: actorID}
	switch filter {
	case ReadFilterUnread:
		read := false
		f.Read = &read
	case ReadFilterRead:
		read := true
		f.Read = &read
	default:
		filter = ReadFilterAll
	}

	list, err := store.ListNotifications(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	count, err := store.CountUnread(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return &NotificationList{Notifications: list, UnreadCount: count, Filter: filter}, nil
}
