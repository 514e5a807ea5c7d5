package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// RelayEmailsCmd creates the relayEmails command
func RelayEmailsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relayEmails",
		Short: "Email notifications that have not been delivered yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Cfg.Email.Enabled {
				fmt.Println("Email relay is disabled (email.enabled is false).")
				return nil
			}
			limit, _ := cmd.Flags().GetInt("limit")

			gmail, err := app.GmailClient()
			if err != nil {
				return err
			}

			result, err := services.RelayNotificationEmails(app.Ctx, app.Database, gmail, app.Logger, services.RelayParams{
				BaseURL: app.Cfg.Email.BaseURL,
				Limit:   limit,
			})
			if result != nil {
				fmt.Printf("\n✓ Sent %d emails, skipped %d recipients without an address\n\n", result.Sent, result.Skipped)
			}
			return err
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum notifications to relay (0 for all)")

	return cmd
}
