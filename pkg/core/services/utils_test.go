package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

func TestDateOnly(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	in := time.Date(2030, 3, 10, 23, 45, 12, 99, berlin)

	got := dateOnly(in)

	assert.Equal(t, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestToday_UsesServiceClock(t *testing.T) {
	freezeTime(t, time.Date(2031, 1, 2, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC), today())
}

func TestValidateStruct_ReportsFields(t *testing.T) {
	attrs := EventAttrs{MaxVolunteers: 0}

	err := validateStruct(attrs)

	require.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Title (required)")
	assert.Contains(t, err.Error(), "MaxVolunteers (gt)")
}

func TestNotFoundAs(t *testing.T) {
	err := notFoundAs(db.ErrNoRows, "event")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "event")

	boom := errors.New("connection reset")
	err = notFoundAs(boom, "event")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestRequireRole(t *testing.T) {
	volunteer := &model.Profile{ID: "p1", Role: model.RoleVolunteer}

	assert.NoError(t, requireRole(volunteer, model.RoleVolunteer))
	assert.ErrorIs(t, requireRole(volunteer, model.RoleOrganizer), model.ErrRole)
}

func TestSharesSkill(t *testing.T) {
	cooking := model.Skill{ID: "s1", Name: "Cooking"}
	driving := model.Skill{ID: "s2", Name: "Driving"}
	tutoring := model.Skill{ID: "s3", Name: "Tutoring"}

	tests := []struct {
		name string
		a, b []model.Skill
		want bool
	}{
		{"overlap", []model.Skill{cooking, driving}, []model.Skill{driving}, true},
		{"disjoint", []model.Skill{cooking}, []model.Skill{tutoring}, false},
		{"empty side", nil, []model.Skill{cooking}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sharesSkill(tt.a, tt.b))
		})
	}
}
