package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

const eventColumns = `e.id, e.title, e.description, e.date, e.time, e.location, e.city, e.organizer_id,
	e.max_volunteers, e.image_url, e.is_active, e.created_at, e.updated_at`

// approvedCountColumn derives registered_count from the live approved registrations
const approvedCountColumn = `(SELECT COUNT(*) FROM registration r WHERE r.event_id = e.id AND r.status = 'approved')`

const eventOrder = ` ORDER BY e.date ASC, e.time ASC NULLS LAST, e.created_at ASC`

func scanEvent(row pgx.Row, withCount bool) (*model.Event, error) {
	var e model.Event
	var tod pgtype.Time
	dest := []any{&e.ID, &e.Title, &e.Description, &e.Date, &tod, &e.Location, &e.City, &e.OrganizerID,
		&e.MaxVolunteers, &e.ImageURL, &e.IsActive, &e.CreatedAt, &e.UpdatedAt}
	if withCount {
		dest = append(dest, &e.ApprovedCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Date = time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
	e.Time = timeOfDayFromPg(tod)
	return &e, nil
}

func timeOfDayFromPg(t pgtype.Time) *model.TimeOfDay {
	if !t.Valid {
		return nil
	}
	minutes := t.Microseconds / int64(time.Minute/time.Microsecond)
	return &model.TimeOfDay{Hour: int(minutes / 60), Minute: int(minutes % 60)}
}

func timeOfDayToPg(t *model.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{
		Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}
}

// InsertEvent inserts an event row; required skills are set separately with SetEventSkills
func (d *queries) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO event (id, title, description, date, time, location, city, organizer_id,
			max_volunteers, image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.Title, e.Description, e.Date, timeOfDayToPg(e.Time), e.Location, e.City, e.OrganizerID,
		e.MaxVolunteers, e.ImageURL, e.IsActive, e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", translateError(err))
	}
	return nil
}

// UpdateEvent overwrites the editable event columns
func (d *queries) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := d.q.Exec(ctx, `
		UPDATE event
		SET title = $2, description = $3, date = $4, time = $5, location = $6, city = $7,
			max_volunteers = $8, image_url = $9, is_active = $10, updated_at = $11
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Date, timeOfDayToPg(e.Time), e.Location, e.City,
		e.MaxVolunteers, e.ImageURL, e.IsActive, e.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update event: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update event: %w", db.ErrNoRows)
	}
	return nil
}

// SetEventSkills replaces the event's required skill set
func (d *queries) SetEventSkills(ctx context.Context, eventID string, skillIDs []string) error {
	return d.replaceSkills(ctx, "event_skill", "event_id", eventID, skillIDs)
}

// DeleteEvent removes the event; registrations and notifications cascade
func (d *queries) DeleteEvent(ctx context.Context, id string) error {
	tag, err := d.q.Exec(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete event: %w", db.ErrNoRows)
	}
	return nil
}

// GetEvent retrieves an event with its skills and live approved count
func (d *queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(d.q.QueryRow(ctx,
		`SELECT `+eventColumns+`, `+approvedCountColumn+` FROM event e WHERE e.id = $1`, id), true)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", translateError(err))
	}
	return d.withEventSkills(ctx, e)
}

// LockEvent takes a row lock on the event before counting approvals, so concurrent
// capacity checks on the same event run one after another
func (d *queries) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(d.q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM event e WHERE e.id = $1 FOR UPDATE`, id), false)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", translateError(err))
	}

	if err := d.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM registration WHERE event_id = $1 AND status = 'approved'`, id,
	).Scan(&e.ApprovedCount); err != nil {
		return nil, fmt.Errorf("failed to count approved registrations: %w", err)
	}
	return d.withEventSkills(ctx, e)
}

func (d *queries) withEventSkills(ctx context.Context, e *model.Event) (*model.Event, error) {
	skills, err := d.skillsFor(ctx, "event_skill", "event_id", []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.RequiredSkills = skills[e.ID]
	return e, nil
}

// ListEvents lists events matching every set filter, ordered by (date, time)
func (d *queries) ListEvents(ctx context.Context, filter db.EventFilter) ([]model.Event, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActiveOnly {
		conditions = append(conditions, `e.is_active`)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, `e.date >= `+arg(filter.From))
	}
	if filter.SkillID != "" {
		if len(validUUIDs([]string{filter.SkillID})) == 0 {
			return nil, nil
		}
		conditions = append(conditions,
			`EXISTS (SELECT 1 FROM event_skill es WHERE es.event_id = e.id AND es.skill_id = `+arg(filter.SkillID)+`)`)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		conditions = append(conditions, `e.city ILIKE `+arg(likePattern(city)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg(likePattern(search))
		conditions = append(conditions, `(e.title ILIKE `+p+` OR e.description ILIKE `+p+`)`)
	}

	where := ""
	if len(conditions) > 0 {
		where = ` WHERE ` + strings.Join(conditions, " AND ")
	}

	return d.queryEvents(ctx, `SELECT `+eventColumns+`, `+approvedCountColumn+` FROM event e`+where+eventOrder, args...)
}

// ListEventsByOrganizer lists every event owned by the organizer
func (d *queries) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return d.queryEvents(ctx, `SELECT `+eventColumns+`, `+approvedCountColumn+`
		FROM event e WHERE e.organizer_id = $1`+eventOrder, organizerID)
}

// ListEventsByVolunteer lists events the volunteer registered for, optionally restricted by status
func (d *queries) ListEventsByVolunteer(ctx context.Context, volunteerID string, statuses []model.RegistrationStatus) ([]model.Event, error) {
	statusFilter := ""
	args := []any{volunteerID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		args = append(args, values)
		statusFilter = ` AND r.status = ANY($2::text[])`
	}

	return d.queryEvents(ctx, `SELECT `+eventColumns+`, `+approvedCountColumn+`
		FROM event e
		WHERE EXISTS (SELECT 1 FROM registration r WHERE r.event_id = e.id AND r.volunteer_id = $1`+statusFilter+`)`+
		eventOrder, args...)
}

// ListCities returns the distinct non-empty event cities
func (d *queries) ListCities(ctx context.Context) ([]string, error) {
	rows, err := d.q.Query(ctx, `SELECT DISTINCT city FROM event WHERE city <> '' ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	cities, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan cities: %w", err)
	}
	return cities, nil
}

func (d *queries) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	var ids []string
	for rows.Next() {
		e, err := scanEvent(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	rows.Close()

	skills, err := d.skillsFor(ctx, "event_skill", "event_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].RequiredSkills = skills[events[i].ID]
	}
	return events, nil
}
