package db

import (
	"context"
	"time"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

// EventFilter selects events for listing. Zero values disable a filter.
type EventFilter struct {
	SkillID    string
	City       string // case-insensitive substring
	Search     string // case-insensitive substring of title OR description
	ActiveOnly bool
	From       time.Time // inclusive lower bound on date, ignored when zero
}

// VolunteerFilter selects volunteer profiles. A profile matches when it has any of SkillIDs.
type VolunteerFilter struct {
	SkillIDs []string
	City     string
}

// NotificationFilter selects a recipient's notifications, newest first
type NotificationFilter struct {
	RecipientID string
	Read        *bool // nil for all
	Limit       int   // 0 for no limit
}

// SkillStore defines the skill catalog operations
type SkillStore interface {
	ListSkills(ctx context.Context) ([]model.Skill, error)
	GetSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error)
	InsertSkillIfMissing(ctx context.Context, skill *model.Skill) (bool, error)
}

// ProfileStore defines identity and profile operations
type ProfileStore interface {
	InsertProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
	SetProfileSkills(ctx context.Context, profileID string, skillIDs []string) error
	SearchVolunteers(ctx context.Context, filter VolunteerFilter) ([]model.Profile, error)
	CountCompletedEvents(ctx context.Context, volunteerID string, before time.Time) (int, error)
}

// EventStore defines event catalog operations. Returned events carry a live ApprovedCount.
type EventStore interface {
	InsertEvent(ctx context.Context, event *model.Event) error
	UpdateEvent(ctx context.Context, event *model.Event) error
	SetEventSkills(ctx context.Context, eventID string, skillIDs []string) error
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// LockEvent reads the event and holds a write lock on it until the transaction ends
	LockEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	ListEventsByVolunteer(ctx context.Context, volunteerID string, statuses []model.RegistrationStatus) ([]model.Event, error)
	ListCities(ctx context.Context) ([]string, error)
}

// RegistrationStore defines registration operations
type RegistrationStore interface {
	// InsertRegistration returns ErrUniqueViolation when the (event, volunteer) pair exists
	InsertRegistration(ctx context.Context, reg *model.Registration) error
	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	FindRegistration(ctx context.Context, eventID, volunteerID string) (*model.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus, updatedAt time.Time) error
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListRegistrationsByVolunteer(ctx context.Context, volunteerID string) ([]model.Registration, error)
	// ListApprovedRegistrationsBetween returns approved registrations of active events dated in [from, to]
	ListApprovedRegistrationsBetween(ctx context.Context, from, to time.Time) ([]model.Registration, error)
}

// NotificationStore defines notification operations
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
	HasNotificationForRegistration(ctx context.Context, registrationID string, typ model.NotificationType) (bool, error)
	ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error)
	RecordDelivery(ctx context.Context, notificationID string, status DeliveryStatus, at time.Time) error
}

// Queries is the full set of operations available both on the database and inside a transaction
type Queries interface {
	SkillStore
	ProfileStore
	EventStore
	RegistrationStore
	NotificationStore
}

// TxRunner runs fn inside a single transaction. fn's error rolls everything back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// Database defines the interface for all database operations.
// Both the postgres.DB and the in-memory memdb.DB implement this interface.
type Database interface {
	Queries
	TxRunner
}
