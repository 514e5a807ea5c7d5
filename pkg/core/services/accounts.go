package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/auth"
	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// AccountParams are the sign-up fields
type AccountParams struct {
	Username  string `validate:"required,max=150"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	Password  string `validate:"required,min=8"`
	Role      model.Role
	City      string   `validate:"max=100"`
	SkillIDs  []string `validate:"dive,required"`
}

// CreateAccount creates an identity together with its profile in one transaction.
// A taken username yields ErrDuplicate.
func CreateAccount(ctx context.Context, database db.TxRunner, logger *zap.Logger, params AccountParams) (*model.Profile, error) {
	params.Username = strings.TrimSpace(params.Username)
	if err := validateStruct(params); err != nil {
		return nil, err
	}
	if params.Role == "" {
		params.Role = model.RoleVolunteer
	}
	if !params.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, params.Role)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:           uuid.New().String(),
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		Role:         params.Role,
		City:         params.City,
		CreatedAt:    now(),
	}

	err = database.InTx(ctx, func(q db.Queries) error {
		if err := requireKnownSkills(ctx, q, params.SkillIDs); err != nil {
			return err
		}
		if err := q.InsertProfile(ctx, profile); err != nil {
			if errors.Is(err, db.ErrUniqueViolation) {
				return fmt.Errorf("%w: username %q is taken", model.ErrDuplicate, profile.Username)
			}
			return fmt.Errorf("failed to create profile: %w", err)
		}
		if err := q.SetProfileSkills(ctx, profile.ID, params.SkillIDs); err != nil {
			return skillsSetError(err)
		}
		stored, err := q.GetProfile(ctx, profile.ID)
		if err != nil {
			return notFoundAs(err, "profile")
		}
		profile = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Account created",
		zap.String("profile_id", profile.ID),
		zap.String("username", profile.Username),
		zap.String("role", string(profile.Role)))
	return profile, nil
}

// TokenSigner issues actor tokens
type TokenSigner interface {
	Issue(profileID string) (string, error)
}

// Authenticate checks the credentials and returns the profile with a signed actor token
func Authenticate(ctx context.Context, store db.ProfileStore, signer TokenSigner, logger *zap.Logger, username, password string) (*model.Profile, string, error) {
	profile, err := store.GetProfileByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, "", model.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load profile: %w", err)
	}
	if !auth.CheckPassword(profile.PasswordHash, password) {
		logger.Debug("Password mismatch", zap.String("username", username))
		return nil, "", model.ErrInvalidCredentials
	}

	token, err := signer.Issue(profile.ID)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// GetProfile returns a profile with its skills
func GetProfile(ctx context.Context, store db.ProfileStore, profileID string) (*model.Profile, error) {
	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, notFoundAs(err, "profile")
	}
	return profile, nil
}

// ProfileAttrs are the self-editable profile fields
type ProfileAttrs struct {
	Email     string `validate:"required,email"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	Role      model.Role
	Bio       string
	Phone     string   `validate:"max=20"`
	City      string   `validate:"max=100"`
	AvatarURL string   `validate:"omitempty,url"`
	SkillIDs  []string `validate:"dive,required"`
}

// UpdateProfile edits the actor's own profile and replaces its skill set
func UpdateProfile(ctx context.Context, database db.TxRunner, logger *zap.Logger, actorID string, attrs ProfileAttrs) (*model.Profile, error) {
	if err := validateStruct(attrs); err != nil {
		return nil, err
	}
	if attrs.Role != "" && !attrs.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, attrs.Role)
	}

	var profile *model.Profile
	err := database.InTx(ctx, func(q db.Queries) error {
		var err error
		profile, err = q.GetProfile(ctx, actorID)
		if err != nil {
			return notFoundAs(err, "profile")
		}
		if err := requireKnownSkills(ctx, q, attrs.SkillIDs); err != nil {
			return err
		}

		profile.Email = attrs.Email
		profile.FirstName = attrs.FirstName
		profile.LastName = attrs.LastName
		if attrs.Role != "" {
			profile.Role = attrs.Role
		}
		profile.Bio = attrs.Bio
		profile.Phone = attrs.Phone
		profile.City = attrs.City
		profile.AvatarURL = attrs.AvatarURL

		if err := q.UpdateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if err := q.SetProfileSkills(ctx, profile.ID, attrs.SkillIDs); err != nil {
			return skillsSetError(err)
		}
		profile, err = q.GetProfile(ctx, actorID)
		if err != nil {
			return notFoundAs(err, "profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Profile updated", zap.String("profile_id", actorID))
	return profile, nil
}

// SearchVolunteers finds volunteers having any of the skills and living in a matching city.
// Only organizers may search.
func SearchVolunteers(ctx context.Context, store db.ProfileStore, actorID string, skillIDs []string, city string) ([]model.Profile, error) {
	actor, err := store.GetProfile(ctx, actorID)
	if err != nil {
		return nil, notFoundAs(err, "actor")
	}
	if err := requireRole(actor, model.RoleOrganizer); err != nil {
		return nil, err
	}

	volunteers, err := store.SearchVolunteers(ctx, db.VolunteerFilter{SkillIDs: skillIDs, City: city})
	if err != nil {
		return nil, fmt.Errorf("failed to search volunteers: %w", err)
	}
	return volunteers, nil
}

// VolunteerSummary is a public profile page
type VolunteerSummary struct {
	Profile *model.Profile
	// CompletedEvents counts approved registrations for events dated before today
	CompletedEvents int
}

// VolunteerProfile returns a profile with its completed-events statistic
func VolunteerProfile(ctx context.Context, store db.ProfileStore, profileID string) (*VolunteerSummary, error) {
	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, notFoundAs(err, "profile")
	}
	completed, err := store.CountCompletedEvents(ctx, profile.ID, today())
	if err != nil {
		return nil, fmt.Errorf("failed to count completed events: %w", err)
	}
	return &VolunteerSummary{Profile: profile, CompletedEvents: completed}, nil
}
