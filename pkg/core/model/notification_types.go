package model

type NotificationType string

const (
	NotificationApplicationApproved NotificationType = "application_approved"
	NotificationApplicationRejected NotificationType = "application_rejected"
	NotificationNewApplication      NotificationType = "new_application"
	NotificationNewEvent            NotificationType = "new_event"
	NotificationEventReminder       NotificationType = "event_reminder"
)

// NotificationTypes lists every type in display order
var NotificationTypes = []NotificationType{
	NotificationApplicationApproved,
	NotificationApplicationRejected,
	NotificationNewApplication,
	NotificationNewEvent,
	NotificationEventReminder,
}

var notificationIcons = map[NotificationType]string{
	NotificationApplicationApproved: "✅",
	NotificationApplicationRejected: "❌",
	NotificationNewApplication:      "📬",
	NotificationNewEvent:            "🎉",
	NotificationEventReminder:       "⏰",
}

const defaultNotificationIcon = "🔔"

func (t NotificationType) IsValid() bool {
	_, ok := notificationIcons[t]
	return ok
}

func (t NotificationType) Icon() string {
	if icon, ok := notificationIcons[t]; ok {
		return icon
	}
	return defaultNotificationIcon
}
