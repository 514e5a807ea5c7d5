package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// SendEventRemindersCmd creates the sendEventReminders command.
// It is meant to be run once a day by an external scheduler.
func SendEventRemindersCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sendEventReminders",
		Short: "Notify approved volunteers about upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			leadDays, _ := cmd.Flags().GetInt("lead-days")
			if !cmd.Flags().Changed("lead-days") {
				leadDays = app.Cfg.Reminders.LeadDays
			}

			sent, err := services.SendEventReminders(app.Ctx, app.Database, app.Logger, leadDays)
			if err != nil {
				return err
			}

			if sent == 0 {
				fmt.Println("No reminders needed.")
				return nil
			}
			fmt.Printf("\n✓ Sent %d event reminders\n\n", sent)
			return nil
		},
	}

	cmd.Flags().Int("lead-days", 0, "Days ahead to look for events (defaults to reminders.leadDays)")

	return cmd
}
