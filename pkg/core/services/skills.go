package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/db"
)

// DefaultSkills is the catalog installed by SeedSkills
var DefaultSkills = []model.Skill{
	{Name: "Ecology", Icon: "🌱"},
	{Name: "Medicine", Icon: "🏥"},
	{Name: "Education", Icon: "📚"},
	{Name: "Social support", Icon: "🤝"},
	{Name: "Sport", Icon: "⚽"},
	{Name: "Culture", Icon: "🎭"},
	{Name: "IT and technology", Icon: "💻"},
	{Name: "Construction", Icon: "🏗️"},
	{Name: "Animals", Icon: "🐾"},
	{Name: "Children", Icon: "👶"},
	{Name: "Elderly people", Icon: "👴"},
	{Name: "Disability support", Icon: "♿"},
	{Name: "Translation", Icon: "🌍"},
	{Name: "Photography", Icon: "📷"},
	{Name: "Design", Icon: "🎨"},
}

// ListSkills returns the skill catalog ordered by name
func ListSkills(ctx context.Context, store db.SkillStore) ([]model.Skill, error) {
	skills, err := store.ListSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

// SeedSkills inserts every skill whose name is not in the catalog yet and returns the names it created
func SeedSkills(ctx context.Context, store db.SkillStore, logger *zap.Logger, skills []model.Skill) ([]string, error) {
	var created []string
	for _, s := range skills {
		skill := model.Skill{ID: uuid.New().String(), Name: s.Name, Icon: s.Icon}
		inserted, err := store.InsertSkillIfMissing(ctx, &skill)
		if err != nil {
			return nil, fmt.Errorf("failed to seed skill %q: %w", s.Name, err)
		}
		if inserted {
			logger.Debug("Created skill", zap.String("name", skill.Name), zap.String("id", skill.ID))
			created = append(created, skill.Name)
		}
	}

	logger.Info("Skills seeded", zap.Int("created", len(created)), zap.Int("total", len(skills)))
	return created, nil
}
