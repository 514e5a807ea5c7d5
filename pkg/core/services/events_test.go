package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

func TestCreateEvent_NotifiesVolunteersWithSharedSkill(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	ecology := addSkill(t, d, "Ecology")
	medicine := addSkill(t, d, "Medicine")
	sport := addSkill(t, d, "Sport")

	organizer := addProfile(t, d, model.RoleOrganizer, ecology)
	matching := addProfile(t, d, model.RoleVolunteer, ecology, sport)
	alsoMatching := addProfile(t, d, model.RoleVolunteer, medicine)
	unrelated := addProfile(t, d, model.RoleVolunteer, sport)

	event, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, eventAttrs(ecology, medicine))
	require.NoError(t, err)
	assert.Equal(t, organizer.ID, event.OrganizerID)
	assert.True(t, event.IsActive)
	assert.ElementsMatch(t, []string{ecology.ID, medicine.ID}, event.SkillIDs())
	assert.Equal(t, 5, event.SpotsLeft())

	for _, p := range []*model.Profile{matching, alsoMatching} {
		notes := notificationsOf(t, d, p.ID)
		require.Len(t, notes, 1, p.Username)
		assert.Equal(t, model.NotificationNewEvent, notes[0].Type)
		assert.Equal(t, event.ID, notes[0].EventID)
	}
	assert.Empty(t, notificationsOf(t, d, unrelated.ID))
	assert.Empty(t, notificationsOf(t, d, organizer.ID))
}

func TestCreateEvent_Errors(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	organizer := addProfile(t, d, model.RoleOrganizer)
	volunteer := addProfile(t, d, model.RoleVolunteer)

	_, err := CreateEvent(ctx, d, zap.NewNop(), volunteer.ID, eventAttrs())
	assert.ErrorIs(t, err, model.ErrRole)

	attrs := eventAttrs()
	attrs.MaxVolunteers = 0
	_, err = CreateEvent(ctx, d, zap.NewNop(), organizer.ID, attrs)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	attrs = eventAttrs()
	attrs.Title = ""
	_, err = CreateEvent(ctx, d, zap.NewNop(), organizer.ID, attrs)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.ErrorContains(t, err, "Title")
}

func TestListEvents_CityAndSearch(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	organizer := addProfile(t, d, model.RoleOrganizer)
	day := dateOnly(testToday)

	late := addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, 2)), atTime(18, 0),
		inCity("Berlin-Mitte"), titled("River CLEAN-up", "bring gloves"))
	early := addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, 2)), atTime(9, 0),
		inCity("berlin"), titled("Park day", "we clean the playground"))
	first := addEvent(t, d, organizer.ID, 3, onDate(day),
		inCity("BERLIN"), titled("Cleanup", ""))
	addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, 1)),
		inCity("Hamburg"), titled("Beach clean", ""))
	addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, 1)),
		inCity("Berlin"), titled("Book club", "reading"))
	addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, -1)),
		inCity("Berlin"), titled("Yesterday's clean", ""))
	addEvent(t, d, organizer.ID, 3, onDate(day.AddDate(0, 0, 5)), inactive(),
		inCity("Berlin"), titled("Cancelled clean", ""))

	events, err := ListEvents(ctx, d, ListEventsParams{City: "Berlin", Search: "clean"})
	require.NoError(t, err)

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{first.ID, early.ID, late.ID}, ids)
}

func TestListEvents_SkillFilter(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	ecology := addSkill(t, d, "Ecology")
	organizer := addProfile(t, d, model.RoleOrganizer)

	tagged, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, eventAttrs(ecology))
	require.NoError(t, err)
	_, err = CreateEvent(ctx, d, zap.NewNop(), organizer.ID, eventAttrs())
	require.NoError(t, err)

	events, err := ListEvents(ctx, d, ListEventsParams{SkillID: ecology.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tagged.ID, events[0].ID)

	all, err := ListEvents(ctx, d, ListEventsParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEditEvent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	organizer := addProfile(t, d, model.RoleOrganizer)
	stranger := addProfile(t, d, model.RoleOrganizer)

	event, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, eventAttrs())
	require.NoError(t, err)

	attrs := eventAttrs()
	attrs.Title = "Renamed"
	attrs.Time = &model.TimeOfDay{Hour: 10, Minute: 30}
	closed := false
	attrs.IsActive = &closed

	_, err = EditEvent(ctx, d, zap.NewNop(), event.ID, stranger.ID, attrs)
	assert.ErrorIs(t, err, model.ErrOwnership)

	updated, err := EditEvent(ctx, d, zap.NewNop(), event.ID, organizer.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.Time)
	assert.Equal(t, "10:30", updated.Time.String())

	_, err = EditEvent(ctx, d, zap.NewNop(), "missing", organizer.ID, attrs)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEditEvent_KeepsActiveFlagWhenOmitted(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	organizer := addProfile(t, d, model.RoleOrganizer)

	closed := false
	attrs := eventAttrs()
	attrs.IsActive = &closed
	event, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, attrs)
	require.NoError(t, err)
	require.False(t, event.IsActive)

	attrs = eventAttrs()
	attrs.Title = "Renamed"
	updated, err := EditEvent(ctx, d, zap.NewNop(), event.ID, organizer.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.False(t, updated.IsActive)

	open := true
	attrs.IsActive = &open
	updated, err = EditEvent(ctx, d, zap.NewNop(), event.ID, organizer.ID, attrs)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}

func TestEventSkills_UnknownSkillRejected(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	ecology := addSkill(t, d, "Ecology")
	organizer := addProfile(t, d, model.RoleOrganizer)

	attrs := eventAttrs(ecology)
	attrs.SkillIDs = append(attrs.SkillIDs, "no-such-skill")
	_, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, attrs)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	events, err := ListEvents(ctx, d, ListEventsParams{})
	require.NoError(t, err)
	assert.Empty(t, events)

	// repeated ids are not mistaken for unknown ones
	attrs = eventAttrs(ecology, ecology)
	event, err := CreateEvent(ctx, d, zap.NewNop(), organizer.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, []string{ecology.ID}, event.SkillIDs())

	attrs = eventAttrs()
	attrs.SkillIDs = []string{"no-such-skill"}
	_, err = EditEvent(ctx, d, zap.NewNop(), event.ID, organizer.ID, attrs)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	stored, err := EventDetail(ctx, d, event.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{ecology.ID}, stored.Event.SkillIDs())
}

func TestDeleteEvent_CascadesRegistrations(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()
	organizer := addProfile(t, d, model.RoleOrganizer)
	stranger := addProfile(t, d, model.RoleOrganizer)
	volunteer := addProfile(t, d, model.RoleVolunteer)
	event := addEvent(t, d, organizer.ID, 2)

	created, err := CreateRegistration(ctx, d, logger, event.ID, volunteer.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteEvent(ctx, d, logger, event.ID, stranger.ID), model.ErrOwnership)
	require.NoError(t, DeleteEvent(ctx, d, logger, event.ID, organizer.ID))

	_, err = GetEvent(ctx, d, event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = d.GetRegistration(ctx, created.Registration.ID)
	assert.Error(t, err)
	assert.Empty(t, notificationsOf(t, d, organizer.ID))
}

func TestEventDetail_CanRegister(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("anonymous", func(t *testing.T) {
		d := newTestDB(t)
		organizer := addProfile(t, d, model.RoleOrganizer)
		event := addEvent(t, d, organizer.ID, 2)

		details, err := EventDetail(ctx, d, event.ID, "")
		require.NoError(t, err)
		assert.False(t, details.CanRegister)
		assert.Nil(t, details.MyRegistration)
		assert.Equal(t, organizer.ID, details.Organizer.ID)
	})

	t.Run("eligible volunteer", func(t *testing.T) {
		d := newTestDB(t)
		organizer := addProfile(t, d, model.RoleOrganizer)
		volunteer := addProfile(t, d, model.RoleVolunteer)
		event := addEvent(t, d, organizer.ID, 2, onDate(testToday))

		details, err := EventDetail(ctx, d, event.ID, volunteer.ID)
		require.NoError(t, err)
		assert.True(t, details.CanRegister)
	})

	t.Run("already registered", func(t *testing.T) {
		d := newTestDB(t)
		organizer := addProfile(t, d, model.RoleOrganizer)
		volunteer := addProfile(t, d, model.RoleVolunteer)
		event := addEvent(t, d, organizer.ID, 2)
		_, err := CreateRegistration(ctx, d, logger, event.ID, volunteer.ID, "")
		require.NoError(t, err)

		details, err := EventDetail(ctx, d, event.ID, volunteer.ID)
		require.NoError(t, err)
		assert.False(t, details.CanRegister)
		require.NotNil(t, details.MyRegistration)
		assert.Equal(t, model.StatusPending, details.MyRegistration.Status)
		assert.Len(t, details.Registrations, 1)
	})

	t.Run("past event", func(t *testing.T) {
		d := newTestDB(t)
		organizer := addProfile(t, d, model.RoleOrganizer)
		volunteer := addProfile(t, d, model.RoleVolunteer)
		event := addEvent(t, d, organizer.ID, 2, onDate(testToday.AddDate(0, 0, -1)))

		details, err := EventDetail(ctx, d, event.ID, volunteer.ID)
		require.NoError(t, err)
		assert.False(t, details.CanRegister)
	})

	t.Run("organizer", func(t *testing.T) {
		d := newTestDB(t)
		organizer := addProfile(t, d, model.RoleOrganizer)
		event := addEvent(t, d, organizer.ID, 2)

		details, err := EventDetail(ctx, d, event.ID, organizer.ID)
		require.NoError(t, err)
		assert.False(t, details.CanRegister)
	})
}

func TestMyEvents(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()
	organizer := addProfile(t, d, model.RoleOrganizer)
	volunteer := addProfile(t, d, model.RoleVolunteer)
	other := addProfile(t, d, model.RoleVolunteer)

	busy := addEvent(t, d, organizer.ID, 5, onDate(testToday.AddDate(0, 0, 1)))
	quiet := addEvent(t, d, organizer.ID, 5, onDate(testToday.AddDate(0, 0, 2)))

	reg, err := CreateRegistration(ctx, d, logger, busy.ID, volunteer.ID, "")
	require.NoError(t, err)
	_, err = CreateRegistration(ctx, d, logger, busy.ID, other.ID, "")
	require.NoError(t, err)

	mine, err := MyEvents(ctx, d, organizer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, busy.ID, mine[0].Event.ID)
	assert.Equal(t, 2, mine[0].RegistrationCount)
	assert.Equal(t, quiet.ID, mine[1].Event.ID)
	assert.Equal(t, 0, mine[1].RegistrationCount)

	theirs, err := MyEvents(ctx, d, volunteer.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	require.NotNil(t, theirs[0].Registration)
	assert.Equal(t, reg.Registration.ID, theirs[0].Registration.ID)
}

func TestCreateEventSeries(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	organizer := addProfile(t, d, model.RoleOrganizer)

	attrs := eventAttrs()
	attrs.Date = time.Date(2030, time.March, 11, 0, 0, 0, 0, time.UTC) // a Monday

	events, err := CreateEventSeries(ctx, d, zap.NewNop(), organizer.ID, attrs, "FREQ=WEEKLY;BYDAY=MO,TH;COUNT=10", 4)
	require.NoError(t, err)
	require.Len(t, events, 4)

	want := []string{"2030-03-11", "2030-03-14", "2030-03-18", "2030-03-21"}
	for i, e := range events {
		assert.Equal(t, want[i], e.Date.Format("2006-01-02"))
		assert.Equal(t, attrs.Title, e.Title)
	}

	_, err = CreateEventSeries(ctx, d, zap.NewNop(), organizer.ID, attrs, "FREQ=SOMETIMES", 4)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestListCities(t *testing.T) {
	d := newTestDB(t)
	organizer := addProfile(t, d, model.RoleOrganizer)
	addEvent(t, d, organizer.ID, 1, inCity("Munich"))
	addEvent(t, d, organizer.ID, 1, inCity("Berlin"))
	addEvent(t, d, organizer.ID, 1, inCity("Berlin"))
	addEvent(t, d, organizer.ID, 1, inCity(""))

	cities, err := ListCities(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Munich"}, cities)
}
