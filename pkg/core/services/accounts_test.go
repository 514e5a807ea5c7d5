package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/auth"
	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

const passDefaultLen = 12

func randomPassword() string {
	return gofakeit.Password(true, true, true, false, false, passDefaultLen)
}

func TestCreateAccount_AndAuthenticate(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()
	ecology := addSkill(t, d, "Ecology")

	password := randomPassword()
	params := AccountParams{
		Username:  "river_" + gofakeit.LetterN(6),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Password:  password,
		SkillIDs:  []string{ecology.ID},
	}

	profile, err := CreateAccount(ctx, d, logger, params)
	require.NoError(t, err)
	assert.Equal(t, model.RoleVolunteer, profile.Role)
	assert.Equal(t, []string{ecology.ID}, profile.SkillIDs())
	assert.NotEqual(t, []byte(password), profile.PasswordHash)

	_, err = CreateAccount(ctx, d, logger, params)
	assert.ErrorIs(t, err, model.ErrDuplicate)

	issuer := auth.NewTokenIssuer("a-test-secret-of-some-length", time.Hour)
	got, token, err := Authenticate(ctx, d, issuer, logger, params.Username, password)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, subject)

	_, _, err = Authenticate(ctx, d, issuer, logger, params.Username, "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, _, err = Authenticate(ctx, d, issuer, logger, "nobody", password)
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestCreateAccount_Validation(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params AccountParams
	}{
		{"missing username", AccountParams{Email: gofakeit.Email(), Password: randomPassword()}},
		{"bad email", AccountParams{Username: "u1", Email: "not-an-email", Password: randomPassword()}},
		{"short password", AccountParams{Username: "u2", Email: gofakeit.Email(), Password: "short"}},
		{"unknown role", AccountParams{Username: "u3", Email: gofakeit.Email(), Password: randomPassword(), Role: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateAccount(ctx, d, zap.NewNop(), tt.params)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

type failingSigner struct{}

func (failingSigner) Issue(string) (string, error) { return "", errors.New("no key") }

func TestAuthenticate_SignerFailure(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	password := randomPassword()

	profile, err := CreateAccount(ctx, d, zap.NewNop(), AccountParams{
		Username: "signer", Email: gofakeit.Email(), Password: password, Role: model.RoleOrganizer,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganizer, profile.Role)

	_, _, err = Authenticate(ctx, d, failingSigner{}, zap.NewNop(), "signer", password)
	assert.EqualError(t, err, "no key")
}

func TestUpdateProfile(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	sport := addSkill(t, d, "Sport")
	culture := addSkill(t, d, "Culture")
	volunteer := addProfile(t, d, model.RoleVolunteer, sport)

	updated, err := UpdateProfile(ctx, d, zap.NewNop(), volunteer.ID, ProfileAttrs{
		Email:     "new@example.org",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Bio:       "loves puzzles",
		Phone:     "+49 30 1234",
		City:      "Berlin",
		SkillIDs:  []string{culture.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.org", updated.Email)
	assert.Equal(t, "Ada Lovelace", updated.FullName())
	assert.Equal(t, model.RoleVolunteer, updated.Role)
	assert.Equal(t, []string{culture.ID}, updated.SkillIDs())

	_, err = UpdateProfile(ctx, d, zap.NewNop(), volunteer.ID, ProfileAttrs{Email: "broken"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSearchVolunteers(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	animals := addSkill(t, d, "Animals")
	design := addSkill(t, d, "Design")

	organizer := addProfile(t, d, model.RoleOrganizer, animals)
	vet := addProfile(t, d, model.RoleVolunteer, animals)
	designer := addProfile(t, d, model.RoleVolunteer, design)

	found, err := SearchVolunteers(ctx, d, organizer.ID, []string{animals.ID}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, vet.ID, found[0].ID)

	found, err = SearchVolunteers(ctx, d, organizer.ID, nil, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = SearchVolunteers(ctx, d, organizer.ID, nil, designer.City)
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	_, err = SearchVolunteers(ctx, d, vet.ID, nil, "")
	assert.ErrorIs(t, err, model.ErrRole)
}

func TestVolunteerProfile_CompletedEvents(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()
	organizer := addProfile(t, d, model.RoleOrganizer)
	volunteer := addProfile(t, d, model.RoleVolunteer)

	past := addEvent(t, d, organizer.ID, 2, onDate(testToday.AddDate(0, 0, -3)))
	future := addEvent(t, d, organizer.ID, 2, onDate(testToday.AddDate(0, 0, 3)))
	for _, e := range []*model.Event{past, future} {
		created, err := CreateRegistration(ctx, d, logger, e.ID, volunteer.ID, "")
		require.NoError(t, err)
		_, err = Decide(ctx, d, logger, created.Registration.ID, organizer.ID, model.DecisionApprove)
		require.NoError(t, err)
	}

	summary, err := VolunteerProfile(ctx, d, volunteer.ID)
	require.NoError(t, err)
	assert.Equal(t, volunteer.ID, summary.Profile.ID)
	assert.Equal(t, 1, summary.CompletedEvents)

	_, err = VolunteerProfile(ctx, d, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSeedSkills_Idempotent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	created, err := SeedSkills(ctx, d, zap.NewNop(), DefaultSkills)
	require.NoError(t, err)
	assert.Len(t, created, len(DefaultSkills))

	created, err = SeedSkills(ctx, d, zap.NewNop(), DefaultSkills)
	require.NoError(t, err)
	assert.Empty(t, created)

	skills, err := ListSkills(ctx, d)
	require.NoError(t, err)
	require.Len(t, skills, len(DefaultSkills))
	assert.Equal(t, "Animals", skills[0].Name)
	assert.Equal(t, "🐾", skills[0].Icon)
}
