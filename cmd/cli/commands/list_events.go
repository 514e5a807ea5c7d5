package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// ListEventsCmd creates the listEvents command
func ListEventsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listEvents",
		Short: "List upcoming active events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			city, _ := cmd.Flags().GetString("city")
			skill, _ := cmd.Flags().GetString("skill")
			search, _ := cmd.Flags().GetString("search")

			events, err := services.ListEvents(app.Ctx, app.Database, services.ListEventsParams{
				SkillID: skill,
				City:    city,
				Search:  search,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d events:\n\n", len(events))
			for _, e := range events {
				when := e.Date.Format("Mon Jan 02 2006")
				if e.Time != nil {
					when += " " + e.Time.String()
				}
				full := ""
				if e.IsFull() {
					full = " [FULL]"
				}
				fmt.Printf("- %s (%s) - %s - %s, %s - %d/%d spots left%s\n",
					e.Title,
					e.ID,
					when,
					e.Location,
					e.City,
					e.SpotsLeft(),
					e.MaxVolunteers,
					full,
				)
			}
			return nil
		},
	}

	cmd.Flags().String("city", "", "City substring")
	cmd.Flags().String("skill", "", "Skill ID")
	cmd.Flags().String("search", "", "Text in title or description")

	return cmd
}
