package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

// ListSkills returns the whole catalog ordered by name
func (d *queries) ListSkills(ctx context.Context) ([]model.Skill, error) {
	rows, err := d.q.Query(ctx, `SELECT id, name, icon FROM skill ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	return collectSkills(rows)
}

// GetSkillsByIDs returns the skills with the given ids, ignoring unknown ids
func (d *queries) GetSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := d.q.Query(ctx, `SELECT id, name, icon FROM skill WHERE id = ANY($1::uuid[]) ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills by id: %w", err)
	}
	return collectSkills(rows)
}

// InsertSkillIfMissing inserts the skill unless one with the same name exists.
// On return skill.ID holds the id of the stored row.
func (d *queries) InsertSkillIfMissing(ctx context.Context, skill *model.Skill) (bool, error) {
	var id string
	err := d.q.QueryRow(ctx, `
		INSERT INTO skill (id, name, icon)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, skill.ID, skill.Name, skill.Icon).Scan(&id)
	if err == nil {
		skill.ID = id
		return true, nil
	}

	if err := translateError(err); !isNoRows(err) {
		return false, fmt.Errorf("failed to insert skill: %w", err)
	}

	if err := d.q.QueryRow(ctx, `SELECT id FROM skill WHERE name = $1`, skill.Name).Scan(&skill.ID); err != nil {
		return false, fmt.Errorf("failed to look up existing skill: %w", translateError(err))
	}
	return false, nil
}

type skillRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func collectSkills(rows skillRows) ([]model.Skill, error) {
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skills: %w", err)
	}
	return skills, nil
}

// skillsFor loads the skills joined through a link table, keyed by owner id
func (d *queries) skillsFor(ctx context.Context, linkTable, ownerColumn string, ownerIDs []string) (map[string][]model.Skill, error) {
	result := make(map[string][]model.Skill, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT l.%[2]s, s.id, s.name, s.icon
		FROM %[1]s l
		JOIN skill s ON s.id = l.skill_id
		WHERE l.%[2]s = ANY($1::uuid[])
		ORDER BY s.name
	`, linkTable, ownerColumn)

	rows, err := d.q.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", linkTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID string
		var s model.Skill
		if err := rows.Scan(&ownerID, &s.ID, &s.Name, &s.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", linkTable, err)
		}
		result[ownerID] = append(result[ownerID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", linkTable, err)
	}
	return result, nil
}

// replaceSkills rewrites the link rows for one owner
func (d *queries) replaceSkills(ctx context.Context, linkTable, ownerColumn, ownerID string, skillIDs []string) error {
	if _, err := d.q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, linkTable, ownerColumn), ownerID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", linkTable, err)
	}
	if len(skillIDs) == 0 {
		return nil
	}
	_, err := d.q.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, skill_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, linkTable, ownerColumn), ownerID, skillIDs)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", linkTable, translateError(err))
	}
	return nil
}
