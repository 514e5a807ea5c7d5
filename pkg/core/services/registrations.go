package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// RegistrationResult is a registration together with the notification its transition emitted, if any
type RegistrationResult struct {
	Registration *model.Registration
	Notification *model.Notification
}

// CreateRegistration files a pending registration of the volunteer for the event and notifies the organizer.
//
// The event row stays locked from the capacity check until the insert commits, so concurrent
// registrations for one event are serialised. Checks run in order: role, capacity, duplicate.
func CreateRegistration(ctx context.Context, database db.TxRunner, logger *zap.Logger, eventID, volunteerID, message string) (*RegistrationResult, error) {
	var result RegistrationResult

	err := database.InTx(ctx, func(q db.Queries) error {
		volunteer, err := q.GetProfile(ctx, volunteerID)
		if err != nil {
			return notFoundAs(err, "volunteer")
		}
		if err := requireRole(volunteer, model.RoleVolunteer); err != nil {
			return err
		}

		event, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if event.IsFull() {
			return fmt.Errorf("%w: %d of %d spots taken for event %s",
				model.ErrCapacity, event.ApprovedCount, event.MaxVolunteers, event.ID)
		}

		ts := now()
		reg := &model.Registration{
			ID:          uuid.New().String(),
			EventID:     event.ID,
			VolunteerID: volunteer.ID,
			Status:      model.StatusPending,
			Message:     message,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := q.InsertRegistration(ctx, reg); err != nil {
			if errors.Is(err, db.ErrUniqueViolation) {
				return fmt.Errorf("%w: volunteer %s is already registered for event %s",
					model.ErrDuplicate, volunteer.ID, event.ID)
			}
			return fmt.Errorf("failed to insert registration: %w", err)
		}

		n, err := Emit(ctx, q, NotificationParams{
			RecipientID:    event.OrganizerID,
			Type:           model.NotificationNewApplication,
			Title:          "New application for your event",
			Message:        fmt.Sprintf("%s applied for the event %q.", volunteer.DisplayName(), event.Title),
			EventID:        event.ID,
			RegistrationID: reg.ID,
		})
		if err != nil {
			return err
		}

		result = RegistrationResult{Registration: reg, Notification: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Registration created",
		zap.String("registration_id", result.Registration.ID),
		zap.String("event_id", eventID),
		zap.String("volunteer_id", volunteerID))
	return &result, nil
}

// CancelRegistration soft-cancels the actor's own registration.
// The row is kept and still occupies the (event, volunteer) slot.
func CancelRegistration(ctx context.Context, database db.TxRunner, logger *zap.Logger, registrationID, actorID string) (*model.Registration, error) {
	var reg *model.Registration
	err := database.InTx(ctx, func(q db.Queries) error {
		var err error
		reg, err = q.GetRegistration(ctx, registrationID)
		if err != nil {
			return notFoundAs(err, "registration")
		}
		return cancel(ctx, q, reg, actorID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Registration cancelled",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", reg.EventID),
		zap.String("volunteer_id", actorID))
	return reg, nil
}

// CancelEventRegistration cancels the actor's registration for the event
func CancelEventRegistration(ctx context.Context, database db.TxRunner, logger *zap.Logger, eventID, actorID string) (*model.Registration, error) {
	var reg *model.Registration
	err := database.InTx(ctx, func(q db.Queries) error {
		var err error
		reg, err = q.FindRegistration(ctx, eventID, actorID)
		if err != nil {
			return notFoundAs(err, "registration")
		}
		return cancel(ctx, q, reg, actorID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Registration cancelled",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", eventID),
		zap.String("volunteer_id", actorID))
	return reg, nil
}

func cancel(ctx context.Context, q db.RegistrationStore, reg *model.Registration, actorID string) error {
	if reg.VolunteerID != actorID {
		return fmt.Errorf("%w: registration %s belongs to another volunteer", model.ErrOwnership, reg.ID)
	}

	switch reg.Status {
	case model.StatusCancelled:
		return nil
	case model.StatusPending, model.StatusApproved:
	default:
		return fmt.Errorf("%w: cannot cancel a %s registration", model.ErrInvalidTransition, reg.Status)
	}

	ts := now()
	if err := q.UpdateRegistrationStatus(ctx, reg.ID, model.StatusCancelled, ts); err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	reg.Status = model.StatusCancelled
	reg.UpdatedAt = ts
	return nil
}

// Decide records the organizer's verdict on a registration and notifies the volunteer.
//
// Re-deciding between approved and rejected is allowed and notifies again; repeating the current
// outcome changes nothing and emits no notification. Approval re-checks capacity under the event lock.
func Decide(ctx context.Context, database db.TxRunner, logger *zap.Logger, registrationID, organizerID string, decision model.Decision) (*RegistrationResult, error) {
	target, err := decision.Status()
	if err != nil {
		return nil, err
	}

	var result RegistrationResult
	err = database.InTx(ctx, func(q db.Queries) error {
		reg, err := q.GetRegistration(ctx, registrationID)
		if err != nil {
			return notFoundAs(err, "registration")
		}
		event, err := q.LockEvent(ctx, reg.EventID)
		if err != nil {
			return notFoundAs(err, "event")
		}
		if event.OrganizerID != organizerID {
			return fmt.Errorf("%w: event %s is organized by someone else", model.ErrOwnership, event.ID)
		}

		result.Registration = reg
		switch reg.Status {
		case model.StatusCancelled:
			return fmt.Errorf("%w: registration %s was cancelled by the volunteer", model.ErrInvalidTransition, reg.ID)
		case target:
			return nil
		}

		if target == model.StatusApproved && event.IsFull() {
			return fmt.Errorf("%w: %d of %d spots taken for event %s",
				model.ErrCapacity, event.ApprovedCount, event.MaxVolunteers, event.ID)
		}

		ts := now()
		if err := q.UpdateRegistrationStatus(ctx, reg.ID, target, ts); err != nil {
			return fmt.Errorf("failed to update registration status: %w", err)
		}
		reg.Status = target
		reg.UpdatedAt = ts

		params := NotificationParams{
			RecipientID:    reg.VolunteerID,
			EventID:        event.ID,
			RegistrationID: reg.ID,
		}
		if target == model.StatusApproved {
			params.Type = model.NotificationApplicationApproved
			params.Title = "Application approved!"
			params.Message = fmt.Sprintf("Your application for the event %q has been approved.", event.Title)
		} else {
			params.Type = model.NotificationApplicationRejected
			params.Title = "Application rejected"
			params.Message = fmt.Sprintf("Unfortunately your application for the event %q has been rejected.", event.Title)
		}
		n, err := Emit(ctx, q, params)
		if err != nil {
			return err
		}
		result.Notification = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Notification == nil {
		logger.Debug("Registration already decided",
			zap.String("registration_id", registrationID),
			zap.String("status", string(target)))
	} else {
		logger.Info("Registration decided",
			zap.String("registration_id", registrationID),
			zap.String("status", string(target)))
	}
	return &result, nil
}

// EventRegistration is a registration joined with its volunteer's profile
type EventRegistration struct {
	model.Registration
	Volunteer *model.Profile
}

// ListEventRegistrations returns the event's registrations for its organizer, newest first
func ListEventRegistrations(ctx context.Context, store db.Queries, eventID, organizerID string) ([]EventRegistration, error) {
	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundAs(err, "event")
	}
	if event.OrganizerID != organizerID {
		return nil, fmt.Errorf("%w: event %s is organized by someone else", model.ErrOwnership, event.ID)
	}
	return registrationsWithVolunteers(ctx, store, event.ID)
}

func registrationsWithVolunteers(ctx context.Context, store db.Queries, eventID string) ([]EventRegistration, error) {
	regs, err := store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	out := make([]EventRegistration, 0, len(regs))
	for _, reg := range regs {
		volunteer, err := store.GetProfile(ctx, reg.VolunteerID)
		if err != nil {
			return nil, notFoundAs(err, "volunteer")
		}
		out = append(out, EventRegistration{Registration: reg, Volunteer: volunteer})
	}
	return out, nil
}
