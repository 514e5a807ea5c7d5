package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// ListVolunteersCmd creates the listVolunteers command
func ListVolunteersCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listVolunteers <organizer_id>",
		Short: "Search volunteers by skill and city as the given organizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skills, _ := cmd.Flags().GetStringSlice("skill")
			city, _ := cmd.Flags().GetString("city")

			volunteers, err := services.SearchVolunteers(app.Ctx, app.Database, args[0], skills, city)
			if err != nil {
				return fmt.Errorf("failed to list volunteers: %w", err)
			}

			fmt.Printf("\nFound %d volunteers:\n\n", len(volunteers))
			for _, v := range volunteers {
				skillNames := make([]string, len(v.Skills))
				for i, s := range v.Skills {
					skillNames[i] = s.Name
				}
				skillInfo := ""
				if len(skillNames) > 0 {
					skillInfo = fmt.Sprintf(" [%s]", strings.Join(skillNames, ", "))
				}
				fmt.Printf("- %s (%s) - %s - %s%s\n",
					v.DisplayName(),
					v.ID,
					v.City,
					v.Email,
					skillInfo,
				)
			}

			return nil
		},
	}

	cmd.Flags().StringSlice("skill", nil, "Skill IDs; a volunteer matches any of them")
	cmd.Flags().String("city", "", "City substring")

	return cmd
}
