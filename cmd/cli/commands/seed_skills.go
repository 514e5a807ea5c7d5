package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// SeedSkillsCmd creates the seedSkills command
func SeedSkillsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seedSkills",
		Short: "Install the default skill catalog (safe to re-run)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := services.SeedSkills(app.Ctx, app.Database, app.Logger, services.DefaultSkills)
			if err != nil {
				return err
			}

			if len(created) == 0 {
				fmt.Println("All default skills already exist.")
				return nil
			}
			fmt.Printf("\n✓ Created %d skills:\n", len(created))
			for _, name := range created {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		},
	}
}
