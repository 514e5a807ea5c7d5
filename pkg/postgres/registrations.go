package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

const registrationColumns = `r.id, r.event_id, r.volunteer_id, r.status, r.message, r.created_at, r.updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var r model.Registration
	var status string
	if err := row.Scan(&r.ID, &r.EventID, &r.VolunteerID, &status, &r.Message, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RegistrationStatus(status)
	return &r, nil
}

// InsertRegistration inserts a registration. The (event_id, volunteer_id) unique
// constraint rejects a second registration for the same pair whatever its status.
func (d *queries) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO registration (id, event_id, volunteer_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.EventID, r.VolunteerID, string(r.Status), r.Message, r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", translateError(err))
	}
	return nil
}

// GetRegistration retrieves a registration by id
func (d *queries) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	r, err := scanRegistration(d.q.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registration r WHERE r.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", translateError(err))
	}
	return r, nil
}

// FindRegistration retrieves the registration for an (event, volunteer) pair
func (d *queries) FindRegistration(ctx context.Context, eventID, volunteerID string) (*model.Registration, error) {
	r, err := scanRegistration(d.q.QueryRow(ctx, `
		SELECT `+registrationColumns+` FROM registration r
		WHERE r.event_id = $1 AND r.volunteer_id = $2
	`, eventID, volunteerID))
	if err != nil {
		return nil, fmt.Errorf("failed to find registration: %w", translateError(err))
	}
	return r, nil
}

// UpdateRegistrationStatus sets the status of a registration
func (d *queries) UpdateRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus, updatedAt time.Time) error {
	tag, err := d.q.Exec(ctx, `UPDATE registration SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update registration status: %w", db.ErrNoRows)
	}
	return nil
}

// ListRegistrationsByEvent lists an event's registrations, newest first
func (d *queries) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return d.queryRegistrations(ctx, `SELECT `+registrationColumns+` FROM registration r
		WHERE r.event_id = $1 ORDER BY r.created_at DESC`, eventID)
}

// ListRegistrationsByVolunteer lists a volunteer's registrations, newest first
func (d *queries) ListRegistrationsByVolunteer(ctx context.Context, volunteerID string) ([]model.Registration, error) {
	return d.queryRegistrations(ctx, `SELECT `+registrationColumns+` FROM registration r
		WHERE r.volunteer_id = $1 ORDER BY r.created_at DESC`, volunteerID)
}

// ListApprovedRegistrationsBetween lists approved registrations of active events dated within [from, to]
func (d *queries) ListApprovedRegistrationsBetween(ctx context.Context, from, to time.Time) ([]model.Registration, error) {
	return d.queryRegistrations(ctx, `SELECT `+registrationColumns+` FROM registration r
		JOIN event e ON e.id = r.event_id
		WHERE r.status = 'approved' AND e.is_active AND e.date BETWEEN $1 AND $2
		ORDER BY e.date, r.created_at`, from, to)
}

func (d *queries) queryRegistrations(ctx context.Context, query string, args ...any) ([]model.Registration, error) {
	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var registrations []model.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}
	return registrations, nil
}
