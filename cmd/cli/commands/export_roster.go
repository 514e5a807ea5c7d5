package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// ExportRosterCmd creates the exportRoster command
func ExportRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportRoster <event_id> <organizer_id>",
		Short: "Write an event's registrations to the roster spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spreadsheetID, _ := cmd.Flags().GetString("spreadsheet")
			if spreadsheetID == "" {
				spreadsheetID = app.Cfg.Roster.SpreadsheetID
			}

			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			roster, err := services.ExportRoster(app.Ctx, app.Database, sheets, app.Logger, args[0], args[1], spreadsheetID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Roster for %q exported with %d rows\n\n", roster.EventTitle, len(roster.Rows))
			return nil
		},
	}

	cmd.Flags().String("spreadsheet", "", "Spreadsheet ID (defaults to roster.spreadsheetID from config)")

	return cmd
}
