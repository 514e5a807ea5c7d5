package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
	"github.com/jakechorley/volunteer-events/pkg/core/services"
)

// CreateAccountCmd creates the createAccount command
func CreateAccountCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createAccount <username> <email>",
		Short: "Create an account, e.g. the first organizer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			roleFlag, _ := cmd.Flags().GetString("role")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")
			city, _ := cmd.Flags().GetString("city")

			role, err := model.ParseRole(roleFlag)
			if err != nil {
				return err
			}

			profile, err := services.CreateAccount(app.Ctx, app.Database, app.Logger, services.AccountParams{
				Username:  args[0],
				Email:     args[1],
				FirstName: firstName,
				LastName:  lastName,
				Password:  password,
				Role:      role,
				City:      city,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Account created!\n\n")
			fmt.Printf("Profile ID: %s\n", profile.ID)
			fmt.Printf("Username:   %s\n", profile.Username)
			fmt.Printf("Role:       %s\n\n", profile.Role)
			return nil
		},
	}

	cmd.Flags().String("password", "", "Initial password (min 8 characters)")
	cmd.Flags().String("role", string(model.RoleVolunteer), "volunteer or organizer")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	cmd.Flags().String("city", "", "Home city")
	cmd.MarkFlagRequired("password")

	return cmd
}
