package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// ReminderStore is the subset of storage the reminder job needs
type ReminderStore interface {
	db.RegistrationStore
	db.TxRunner
}

// SendEventReminders emits one event_reminder per approved registration whose active event is
// dated between today and today+leadDays inclusive. A registration is never reminded twice, so
// the job is safe to run repeatedly from an external scheduler.
func SendEventReminders(ctx context.Context, database ReminderStore, logger *zap.Logger, leadDays int) (int, error) {
	if leadDays < 0 {
		return 0, fmt.Errorf("%w: lead days must not be negative", model.ErrInvalidInput)
	}

	from := today()
	to := from.AddDate(0, 0, leadDays)
	logger.Debug("Looking for upcoming registrations",
		zap.String("from", from.Format("2006-01-02")),
		zap.String("to", to.Format("2006-01-02")))

	regs, err := database.ListApprovedRegistrationsBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming registrations: %w", err)
	}

	sent := 0
	for _, reg := range regs {
		emitted := false
		err := database.InTx(ctx, func(q db.Queries) error {
			// the candidate list was read outside this transaction
			current, err := q.GetRegistration(ctx, reg.ID)
			if errors.Is(err, db.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to reload registration: %w", err)
			}
			if current.Status != model.StatusApproved {
				return nil
			}

			already, err := q.HasNotificationForRegistration(ctx, reg.ID, model.NotificationEventReminder)
			if err != nil {
				return err
			}
			if already {
				return nil
			}

			event, err := q.GetEvent(ctx, reg.EventID)
			if errors.Is(err, db.ErrNoRows) {
				return nil
			}
			if err != nil {
				return notFoundAs(err, "event")
			}
			if !event.IsActive {
				return nil
			}

			when := event.Date.Format("02.01.2006")
			if event.Time != nil {
				when += " " + event.Time.String()
			}
			_, err = Emit(ctx, q, NotificationParams{
				RecipientID:    reg.VolunteerID,
				Type:           model.NotificationEventReminder,
				Title:          "Event reminder",
				Message:        fmt.Sprintf("%q takes place on %s at %s.", event.Title, when, event.Location),
				EventID:        event.ID,
				RegistrationID: reg.ID,
			})
			if err != nil {
				return err
			}
			emitted = true
			return nil
		})
		if err != nil {
			return sent, fmt.Errorf("failed to remind registration %s: %w", reg.ID, err)
		}
		if emitted {
			sent++
			logger.Debug("Reminder sent",
				zap.String("registration_id", reg.ID),
				zap.String("volunteer_id", reg.VolunteerID))
		}
	}

	logger.Info("Event reminders sent", zap.Int("sent", sent), zap.Int("candidates", len(regs)))
	return sent, nil
}
