package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// RosterPublisher writes a roster to an external spreadsheet
type RosterPublisher interface {
	PublishRoster(spreadsheetID string, roster *model.Roster) error
}

// BuildRoster collects the event's registrations for its organizer.
// Rows are ordered by status (approved, pending, rejected, cancelled) then by name.
func BuildRoster(ctx context.Context, store db.Queries, logger *zap.Logger, eventID, organizerID string) (*model.Roster, error) {
	logger.Debug("Building roster", zap.String("event_id", eventID))

	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundAs(err, "event")
	}
	if event.OrganizerID != organizerID {
		return nil, fmt.Errorf("%w: event %s is organized by someone else", model.ErrOwnership, event.ID)
	}

	regs, err := registrationsWithVolunteers(ctx, store, event.ID)
	if err != nil {
		return nil, err
	}

	rows := make([]model.RosterRow, len(regs))
	for i, r := range regs {
		rows[i] = model.RosterRow{
			Name:      r.Volunteer.DisplayName(),
			Email:     r.Volunteer.Email,
			Phone:     r.Volunteer.Phone,
			Status:    r.Status,
			Message:   r.Message,
			AppliedAt: r.CreatedAt.Format("02.01.2006 15:04"),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Status != rows[j].Status {
			return statusRank[rows[i].Status] < statusRank[rows[j].Status]
		}
		return rows[i].Name < rows[j].Name
	})

	return &model.Roster{
		EventID:    event.ID,
		EventTitle: event.Title,
		EventDate:  event.Date,
		Rows:       rows,
	}, nil
}

var statusRank = map[model.RegistrationStatus]int{
	model.StatusApproved:  0,
	model.StatusPending:   1,
	model.StatusRejected:  2,
	model.StatusCancelled: 3,
}

// ExportRoster builds the event roster and publishes it to the spreadsheet
func ExportRoster(ctx context.Context, store db.Queries, publisher RosterPublisher, logger *zap.Logger, eventID, organizerID, spreadsheetID string) (*model.Roster, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: no roster spreadsheet configured", model.ErrInvalidInput)
	}

	roster, err := BuildRoster(ctx, store, logger, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if err := publisher.PublishRoster(spreadsheetID, roster); err != nil {
		return nil, fmt.Errorf("failed to publish roster: %w", err)
	}

	logger.Info("Roster exported",
		zap.String("event_id", eventID),
		zap.Int("rows", len(roster.Rows)))
	return roster, nil
}
