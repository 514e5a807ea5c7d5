package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

const profileColumns = `p.id, p.username, p.email, p.first_name, p.last_name, p.password_hash,
	p.role, p.bio, p.phone, p.city, p.avatar_url, p.created_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	var role string
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.PasswordHash,
		&role, &p.Bio, &p.Phone, &p.City, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}

// InsertProfile inserts the identity/profile row. A taken username yields db.ErrUniqueViolation.
func (d *queries) InsertProfile(ctx context.Context, p *model.Profile) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO profile (id, username, email, first_name, last_name, password_hash,
			role, bio, phone, city, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.Username, p.Email, p.FirstName, p.LastName, p.PasswordHash,
		string(p.Role), p.Bio, p.Phone, p.City, p.AvatarURL, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", translateError(err))
	}
	return nil
}

// GetProfile retrieves a profile with its skills
func (d *queries) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return d.getProfileWhere(ctx, `p.id = $1`, id)
}

// GetProfileByUsername retrieves a profile by its unique handle
func (d *queries) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return d.getProfileWhere(ctx, `p.username = $1`, username)
}

func (d *queries) getProfileWhere(ctx context.Context, where string, arg any) (*model.Profile, error) {
	p, err := scanProfile(d.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profile p WHERE `+where, arg))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", translateError(err))
	}

	skills, err := d.skillsFor(ctx, "profile_skill", "profile_id", []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Skills = skills[p.ID]
	return p, nil
}

// UpdateProfile overwrites the editable profile columns
func (d *queries) UpdateProfile(ctx context.Context, p *model.Profile) error {
	tag, err := d.q.Exec(ctx, `
		UPDATE profile
		SET email = $2, first_name = $3, last_name = $4, role = $5,
			bio = $6, phone = $7, city = $8, avatar_url = $9
		WHERE id = $1
	`, p.ID, p.Email, p.FirstName, p.LastName, string(p.Role), p.Bio, p.Phone, p.City, p.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update profile: %w", db.ErrNoRows)
	}
	return nil
}

// SetProfileSkills replaces the profile's skill set
func (d *queries) SetProfileSkills(ctx context.Context, profileID string, skillIDs []string) error {
	return d.replaceSkills(ctx, "profile_skill", "profile_id", profileID, skillIDs)
}

// SearchVolunteers lists volunteer profiles matching any of the skills and the city substring
func (d *queries) SearchVolunteers(ctx context.Context, filter db.VolunteerFilter) ([]model.Profile, error) {
	conditions := []string{`p.role = 'volunteer'`}
	args := []any{}

	if len(filter.SkillIDs) > 0 {
		skillIDs := validUUIDs(filter.SkillIDs)
		if len(skillIDs) == 0 {
			return nil, nil
		}
		args = append(args, skillIDs)
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM profile_skill ps WHERE ps.profile_id = p.id AND ps.skill_id = ANY($%d::uuid[]))`, len(args)))
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		args = append(args, likePattern(city))
		conditions = append(conditions, fmt.Sprintf(`p.city ILIKE $%d`, len(args)))
	}

	query := `SELECT ` + profileColumns + ` FROM profile p WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY p.last_name, p.first_name, p.username`

	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	var ids []string
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		profiles = append(profiles, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}
	rows.Close()

	skills, err := d.skillsFor(ctx, "profile_skill", "profile_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Skills = skills[profiles[i].ID]
	}
	return profiles, nil
}

// CountCompletedEvents counts approved registrations for events dated before the given day
func (d *queries) CountCompletedEvents(ctx context.Context, volunteerID string, before time.Time) (int, error) {
	var count int
	err := d.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM registration r
		JOIN event e ON e.id = r.event_id
		WHERE r.volunteer_id = $1 AND r.status = 'approved' AND e.date < $2
	`, volunteerID, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed events: %w", err)
	}
	return count, nil
}
