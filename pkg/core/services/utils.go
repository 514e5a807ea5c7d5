package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// now is the service clock; tests replace it
var now = time.Now

var validate = validator.New()

// today returns the current date at midnight UTC
func today() time.Time {
	return dateOnly(now())
}

// dateOnly truncates t to its calendar date at midnight UTC
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// validateStruct runs struct validation and reports failures as ErrInvalidInput
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", model.ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return nil
}

// notFoundAs converts a storage miss into model.ErrNotFound, leaving other errors wrapped
func notFoundAs(err error, what string) error {
	if errors.Is(err, db.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// requireKnownSkills rejects skill ids that are not in the catalog
func requireKnownSkills(ctx context.Context, store db.SkillStore, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[string]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}
	skills, err := store.GetSkillsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to look up skills: %w", err)
	}
	if len(skills) != len(unique) {
		return fmt.Errorf("%w: unknown skill in %v", model.ErrInvalidInput, ids)
	}
	return nil
}

// skillsSetError reports a skill that vanished from the catalog mid-write as bad input
func skillsSetError(err error) error {
	if errors.Is(err, db.ErrUnknownReference) {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return fmt.Errorf("failed to set skills: %w", err)
}

// requireRole is the capability check applied at each operation boundary
func requireRole(profile *model.Profile, role model.Role) error {
	if profile.Role != role {
		return fmt.Errorf("%w: %s required, actor %s is %s", model.ErrRole, role, profile.ID, profile.Role)
	}
	return nil
}

// sharesSkill reports whether the two skill sets intersect
func sharesSkill(a, b []model.Skill) bool {
	ids := make(map[string]bool, len(a))
	for _, s := range a {
		ids[s.ID] = true
	}
	for _, s := range b {
		if ids[s.ID] {
			return true
		}
	}
	return false
}
