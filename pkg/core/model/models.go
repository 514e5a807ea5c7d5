package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleOrganizer Role = "organizer"
)

func (r Role) IsValid() bool {
	return r == RoleVolunteer || r == RoleOrganizer
}

// ParseRole converts user input into a Role, rejecting anything outside the enumeration
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "pending"
	StatusApproved  RegistrationStatus = "approved"
	StatusRejected  RegistrationStatus = "rejected"
	StatusCancelled RegistrationStatus = "cancelled"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Decision is an organizer's verdict on a registration
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the registration status a decision leads to
func (d Decision) Status() (RegistrationStatus, error) {
	switch d {
	case DecisionApprove:
		return StatusApproved, nil
	case DecisionReject:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, string(d))
}

// Skill is a tag attached to profiles and events
type Skill struct {
	ID   string
	Name string
	Icon string
}

// Profile is an identity together with its role, skills and contact details.
// Every identity has exactly one profile, keyed by the same ID.
type Profile struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	Role         Role
	Bio          string
	Phone        string
	City         string
	AvatarURL    string
	Skills       []Skill
	CreatedAt    time.Time
}

// FullName returns "First Last", trimmed when either part is missing
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DisplayName falls back to the username when no name was given
func (p Profile) DisplayName() string {
	if name := p.FullName(); name != "" {
		return name
	}
	return p.Username
}

func (p Profile) SkillIDs() []string {
	ids := make([]string, len(p.Skills))
	for i, s := range p.Skills {
		ids[i] = s.ID
	}
	return ids
}

// TimeOfDay is an optional wall-clock start time for an event
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "15:04"
func ParseTimeOfDay(s string) (*TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, s)
	}
	return &TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Event is an organizer-posted volunteering opportunity
type Event struct {
	ID             string
	Title          string
	Description    string
	Date           time.Time // midnight UTC
	Time           *TimeOfDay
	Location       string
	City           string
	OrganizerID    string
	RequiredSkills []Skill
	MaxVolunteers  int
	ImageURL       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// ApprovedCount is read from a live count of approved registrations and is never stored
	ApprovedCount int
}

// RegisteredCount is the number of approved registrations
func (e Event) RegisteredCount() int {
	return e.ApprovedCount
}

func (e Event) SpotsLeft() int {
	return e.MaxVolunteers - e.ApprovedCount
}

func (e Event) IsFull() bool {
	return e.SpotsLeft() <= 0
}

func (e Event) SkillIDs() []string {
	ids := make([]string, len(e.RequiredSkills))
	for i, s := range e.RequiredSkills {
		ids[i] = s.ID
	}
	return ids
}

// Registration is a volunteer's claim on an event's capacity
type Registration struct {
	ID          string
	EventID     string
	VolunteerID string
	Status      RegistrationStatus
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Notification is a notice addressed to a single recipient.
// Only IsRead ever changes after creation.
type Notification struct {
	ID             string
	RecipientID    string
	Type           NotificationType
	Title          string
	Message        string
	IsRead         bool
	EventID        string // empty if none
	RegistrationID string // empty if none
	CreatedAt      time.Time
}

// Icon is derived purely from the notification type
func (n Notification) Icon() string {
	return n.Type.Icon()
}

// URL returns the deep link to the related event, or nil
func (n Notification) URL() *string {
	if n.EventID == "" {
		return nil
	}
	u := EventPath(n.EventID)
	return &u
}

// EventPath is the canonical link to an event page
func EventPath(eventID string) string {
	return "/events/" + eventID + "/"
}

// RosterRow is one registration line of an exported roster
type RosterRow struct {
	Name    string
	Email   string
	Phone   string
	Status  RegistrationStatus
	Message string
	// AppliedAt is formatted "02.01.2006 15:04"
	AppliedAt string
}

// Roster is an event's registration list prepared for a spreadsheet tab
type Roster struct {
	EventID    string
	EventTitle string
	EventDate  time.Time
	Rows       []RosterRow
}
