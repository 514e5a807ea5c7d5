package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// EventAttrs are the organizer-editable fields of an event
type EventAttrs struct {
	Title         string           `validate:"required,max=200"`
	Description   string           `validate:"required"`
	Date          time.Time        `validate:"required"`
	Time          *model.TimeOfDay `validate:"omitempty"`
	Location      string           `validate:"required,max=255"`
	City          string           `validate:"max=100"`
	SkillIDs      []string         `validate:"dive,required"`
	MaxVolunteers int              `validate:"gt=0"`
	ImageURL      string           `validate:"omitempty,url"`
	// IsActive defaults to true on create and keeps the stored flag on edit when nil
	IsActive *bool
}

// apply copies the attributes onto the event
func (a EventAttrs) apply(e *model.Event) {
	e.Title = a.Title
	e.Description = a.Description
	e.Date = dateOnly(a.Date)
	e.Time = a.Time
	e.Location = a.Location
	e.City = a.City
	e.MaxVolunteers = a.MaxVolunteers
	e.ImageURL = a.ImageURL
	if a.IsActive != nil {
		e.IsActive = *a.IsActive
	}
}

// CreateEvent creates an event owned by the organizer and announces it with a new_event
// notification to every volunteer sharing at least one of its required skills
func CreateEvent(ctx context.Context, database db.TxRunner, logger *zap.Logger, organizerID string, attrs EventAttrs) (*model.Event, error) {
	if err := validateStruct(attrs); err != nil {
		return nil, err
	}

	var event *model.Event
	var notified int
	err := database.InTx(ctx, func(q db.Queries) error {
		organizer, err := q.GetProfile(ctx, organizerID)
		if err != nil {
			return notFoundAs(err, "organizer")
		}
		if err := requireRole(organizer, model.RoleOrganizer); err != nil {
			return err
		}

		event, notified, err = insertEvent(ctx, q, organizer, attrs)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("organizer_id", organizerID),
		zap.Int("volunteers_notified", notified))
	return event, nil
}

func insertEvent(ctx context.Context, q db.Queries, organizer *model.Profile, attrs EventAttrs) (*model.Event, int, error) {
	ts := now()
	event := &model.Event{
		ID:          uuid.New().String(),
		OrganizerID: organizer.ID,
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	attrs.apply(event)

	if err := requireKnownSkills(ctx, q, attrs.SkillIDs); err != nil {
		return nil, 0, err
	}
	if err := q.InsertEvent(ctx, event); err != nil {
		return nil, 0, fmt.Errorf("failed to insert event: %w", err)
	}
	if err := q.SetEventSkills(ctx, event.ID, attrs.SkillIDs); err != nil {
		return nil, 0, skillsSetError(err)
	}

	stored, err := q.GetEvent(ctx, event.ID)
	if err != nil {
		return nil, 0, notFoundAs(err, "event")
	}

	notified, err := announceEvent(ctx, q, stored)
	if err != nil {
		return nil, 0, err
	}
	return stored, notified, nil
}

// announceEvent emits new_event to matching volunteers
func announceEvent(ctx context.Context, q db.Queries, event *model.Event) (int, error) {
	if !event.IsActive || len(event.RequiredSkills) == 0 {
		return 0, nil
	}

	volunteers, err := q.SearchVolunteers(ctx, db.VolunteerFilter{SkillIDs: event.SkillIDs()})
	if err != nil {
		return 0, fmt.Errorf("failed to find matching volunteers: %w", err)
	}

	for _, v := range volunteers {
		_, err := Emit(ctx, q, NotificationParams{
			RecipientID: v.ID,
			Type:        model.NotificationNewEvent,
			Title:       "New event matching your skills",
			Message:     fmt.Sprintf("%q on %s needs volunteers with your skills.", event.Title, event.Date.Format("02.01.2006")),
			EventID:     event.ID,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(volunteers), nil
}

// CreateEventSeries creates one event per occurrence of the RRULE, starting from attrs.Date and
// looking at most a year ahead. At most maxOccurrences events are created, all in one transaction.
func CreateEventSeries(ctx context.Context, database db.TxRunner, logger *zap.Logger, organizerID string, attrs EventAttrs, rule string, maxOccurrences int) ([]model.Event, error) {
	if err := validateStruct(attrs); err != nil {
		return nil, err
	}

	dates, err := seriesDates(rule, dateOnly(attrs.Date), maxOccurrences)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	err = database.InTx(ctx, func(q db.Queries) error {
		organizer, err := q.GetProfile(ctx, organizerID)
		if err != nil {
			return notFoundAs(err, "organizer")
		}
		if err := requireRole(organizer, model.RoleOrganizer); err != nil {
			return err
		}

		for _, date := range dates {
			occurrence := attrs
			occurrence.Date = date
			event, _, err := insertEvent(ctx, q, organizer, occurrence)
			if err != nil {
				return fmt.Errorf("failed to create occurrence on %s: %w", date.Format(time.DateOnly), err)
			}
			events = append(events, *event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Event series created",
		zap.String("organizer_id", organizerID),
		zap.String("rrule", rule),
		zap.Int("occurrences", len(events)))
	return events, nil
}

// seriesDates expands the rule into calendar dates
func seriesDates(rule string, start time.Time, maxOccurrences int) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse rrule: %v", model.ErrInvalidInput, err)
	}
	r.DTStart(start)

	occurrences := r.Between(start, start.AddDate(1, 0, 0), true)
	if len(occurrences) == 0 {
		return nil, fmt.Errorf("%w: rrule %q has no occurrences within a year of %s",
			model.ErrInvalidInput, rule, start.Format(time.DateOnly))
	}
	if maxOccurrences > 0 && len(occurrences) > maxOccurrences {
		occurrences = occurrences[:maxOccurrences]
	}

	dates := make([]time.Time, len(occurrences))
	for i, o := range occurrences {
		dates[i] = dateOnly(o)
	}
	return dates, nil
}

// EditEvent overwrites the event's attributes. Only the owning organizer may edit.
func EditEvent(ctx context.Context, database db.TxRunner, logger *zap.Logger, eventID, actorID string, attrs EventAttrs) (*model.Event, error) {
	if err := validateStruct(attrs); err != nil {
		return nil, err
	}

	var event *model.Event
	err := database.InTx(ctx, func(q db.Queries) error {
		var err error
		event, err = q.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if event.OrganizerID != actorID {
			return fmt.Errorf("%w: event %s is organized by someone else", model.ErrOwnership, event.ID)
		}

		if err := requireKnownSkills(ctx, q, attrs.SkillIDs); err != nil {
			return err
		}
		attrs.apply(event)
		event.UpdatedAt = now()
		if err := q.UpdateEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		if err := q.SetEventSkills(ctx, event.ID, attrs.SkillIDs); err != nil {
			return skillsSetError(err)
		}

		event, err = q.GetEvent(ctx, event.ID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Event updated", zap.String("event_id", eventID))
	return event, nil
}

// DeleteEvent removes the event along with its registrations and their notifications
func DeleteEvent(ctx context.Context, database db.TxRunner, logger *zap.Logger, eventID, actorID string) error {
	err := database.InTx(ctx, func(q db.Queries) error {
		event, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if event.OrganizerID != actorID {
			return fmt.Errorf("%w: event %s is organized by someone else", model.ErrOwnership, event.ID)
		}
		if err := q.DeleteEvent(ctx, event.ID); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Event deleted", zap.String("event_id", eventID), zap.String("organizer_id", actorID))
	return nil
}

// GetEvent returns an event with its derived counters
func GetEvent(ctx context.Context, store db.EventStore, eventID string) (*model.Event, error) {
	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundAs(err, "event")
	}
	return event, nil
}

// EventDetails is the event page as seen by one actor
type EventDetails struct {
	Event         *model.Event
	Organizer     *model.Profile
	Registrations []EventRegistration
	// MyRegistration is the actor's own registration, nil when absent or anonymous
	MyRegistration *model.Registration
	CanRegister    bool
}

// EventDetail loads the event page. actorID may be empty for anonymous viewers.
func EventDetail(ctx context.Context, store db.Queries, eventID, actorID string) (*EventDetails, error) {
	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundAs(err, "event")
	}
	organizer, err := store.GetProfile(ctx, event.OrganizerID)
	if err != nil {
		return nil, notFoundAs(err, "organizer")
	}
	regs, err := registrationsWithVolunteers(ctx, store, event.ID)
	if err != nil {
		return nil, err
	}

	details := &EventDetails{Event: event, Organizer: organizer, Registrations: regs}
	if actorID == "" {
		return details, nil
	}

	actor, err := store.GetProfile(ctx, actorID)
	if err != nil {
		return nil, notFoundAs(err, "actor")
	}
	for i := range regs {
		if regs[i].VolunteerID == actorID {
			details.MyRegistration = &regs[i].Registration
			break
		}
	}
	details.CanRegister = actor.Role == model.RoleVolunteer &&
		!event.IsFull() &&
		details.MyRegistration == nil &&
		!event.Date.Before(today())
	return details, nil
}

// ListEventsParams are the optional, combinable listing filters
type ListEventsParams struct {
	SkillID string
	City    string
	Search  string
}

// ListEvents lists active events dated today or later, ordered by date then time
func ListEvents(ctx context.Context, store db.EventStore, params ListEventsParams) ([]model.Event, error) {
	events, err := store.ListEvents(ctx, db.EventFilter{
		SkillID:    params.SkillID,
		City:       params.City,
		Search:     params.Search,
		ActiveOnly: true,
		From:       today(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListCities returns the distinct non-empty event cities
func ListCities(ctx context.Context, store db.EventStore) ([]string, error) {
	cities, err := store.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

// MyEvent is one row of the actor's event list
type MyEvent struct {
	Event model.Event
	// RegistrationCount counts registrations in any status; set for organizers
	RegistrationCount int
	// Registration is the volunteer's own registration; set for volunteers
	Registration *model.Registration
}

// MyEvents lists the organizer's own events, or the events a volunteer registered for
func MyEvents(ctx context.Context, store db.Queries, actorID string) ([]MyEvent, error) {
	actor, err := store.GetProfile(ctx, actorID)
	if err != nil {
		return nil, notFoundAs(err, "actor")
	}

	if actor.Role == model.RoleOrganizer {
		events, err := store.ListEventsByOrganizer(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizer events: %w", err)
		}
		out := make([]MyEvent, len(events))
		for i, e := range events {
			regs, err := store.ListRegistrationsByEvent(ctx, e.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list registrations: %w", err)
			}
			out[i] = MyEvent{Event: e, RegistrationCount: len(regs)}
		}
		return out, nil
	}

	events, err := store.ListEventsByVolunteer(ctx, actor.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteer events: %w", err)
	}
	regs, err := store.ListRegistrationsByVolunteer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	byEvent := make(map[string]model.Registration, len(regs))
	for _, r := range regs {
		byEvent[r.EventID] = r
	}

	out := make([]MyEvent, len(events))
	for i, e := range events {
		out[i] = MyEvent{Event: e}
		if r, ok := byEvent[e.ID]; ok {
			out[i].Registration = &r
		}
	}
	return out, nil
}
