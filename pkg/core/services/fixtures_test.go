package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db/memdb"
)

// testToday is the frozen service date used across the package tests
var testToday = time.Date(2030, time.March, 10, 9, 30, 0, 0, time.UTC)

// freezeTime pins the service clock for the duration of the test
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func newTestDB(t *testing.T) *memdb.DB {
	t.Helper()
	freezeTime(t, testToday)
	return memdb.New()
}

func addSkill(t *testing.T, d *memdb.DB, name string) model.Skill {
	t.Helper()
	skill := model.Skill{ID: uuid.New().String(), Name: name}
	_, err := d.InsertSkillIfMissing(context.Background(), &skill)
	require.NoError(t, err)
	return skill
}

func addProfile(t *testing.T, d *memdb.DB, role model.Role, skills ...model.Skill) *model.Profile {
	t.Helper()
	ctx := context.Background()

	p := &model.Profile{
		ID:        uuid.New().String(),
		Username:  fmt.Sprintf("user_%s", gofakeit.LetterN(10)),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Role:      role,
		City:      gofakeit.City(),
		CreatedAt: testToday,
	}
	require.NoError(t, d.InsertProfile(ctx, p))

	ids := make([]string, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	require.NoError(t, d.SetProfileSkills(ctx, p.ID, ids))

	stored, err := d.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	return stored
}

type eventOption func(*model.Event)

func onDate(date time.Time) eventOption {
	return func(e *model.Event) { e.Date = dateOnly(date) }
}

func atTime(hour, minute int) eventOption {
	return func(e *model.Event) { e.Time = &model.TimeOfDay{Hour: hour, Minute: minute} }
}

func inCity(city string) eventOption {
	return func(e *model.Event) { e.City = city }
}

func titled(title, description string) eventOption {
	return func(e *model.Event) {
		e.Title = title
		e.Description = description
	}
}

func inactive() eventOption {
	return func(e *model.Event) { e.IsActive = false }
}

func addEvent(t *testing.T, d *memdb.DB, organizerID string, maxVolunteers int, opts ...eventOption) *model.Event {
	t.Helper()
	ctx := context.Background()

	e := &model.Event{
		ID:            uuid.New().String(),
		Title:         gofakeit.LetterN(12),
		Description:   gofakeit.LetterN(30),
		Date:          dateOnly(testToday).AddDate(0, 0, 7),
		Location:      gofakeit.Street(),
		City:          gofakeit.City(),
		OrganizerID:   organizerID,
		MaxVolunteers: maxVolunteers,
		IsActive:      true,
		CreatedAt:     testToday,
		UpdatedAt:     testToday,
	}
	for _, opt := range opts {
		opt(e)
	}
	require.NoError(t, d.InsertEvent(ctx, e))

	stored, err := d.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	return stored
}

func eventAttrs(skills ...model.Skill) EventAttrs {
	ids := make([]string, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	return EventAttrs{
		Title:         "Park clean-up",
		Description:   "Litter picking around the lake",
		Date:          dateOnly(testToday).AddDate(0, 0, 3),
		Location:      "North gate",
		City:          "Berlin",
		SkillIDs:      ids,
		MaxVolunteers: 5,
	}
}
