package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// ViewRosterCmd creates the viewRoster command
func ViewRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewRoster <event_id> <organizer_id>",
		Short: "Print an event's registrations grouped by status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := services.BuildRoster(app.Ctx, app.Database, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\n%s - %s\n\n", roster.EventDate.Format("Mon Jan 02 2006"), roster.EventTitle)
			if len(roster.Rows) == 0 {
				fmt.Println("No registrations yet.")
				return nil
			}

			nameColWidth := 20
			for _, row := range roster.Rows {
				if len(row.Name)+2 > nameColWidth {
					nameColWidth = len(row.Name) + 2
				}
			}
			statusColWidth := 12

			fmt.Printf("%-*s%-*s%s\n", nameColWidth, "Name", statusColWidth, "Status", "Applied")
			fmt.Println(strings.Repeat("-", nameColWidth+statusColWidth+16))
			for _, row := range roster.Rows {
				fmt.Printf("%-*s%s%-*s%s%s\n",
					nameColWidth, row.Name,
					statusColor(row.Status), statusColWidth, row.Status, colorReset,
					row.AppliedAt,
				)
			}

			approved := 0
			for _, row := range roster.Rows {
				if row.Status == model.StatusApproved {
					approved++
				}
			}
			fmt.Printf("\n%d approved, %d registrations in total\n", approved, len(roster.Rows))
			return nil
		},
	}
}

// statusColor picks the terminal color for a registration status
func statusColor(status model.RegistrationStatus) string {
	switch status {
	case model.StatusApproved:
		return colorGreen
	case model.StatusPending:
		return colorYellow
	case model.StatusRejected:
		return colorRed
	default:
		return colorDim
	}
}
