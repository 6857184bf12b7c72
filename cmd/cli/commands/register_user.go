package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

// RegisterUserCmd creates the registerUser command
func RegisterUserCmd(app *AppContext) *cobra.Command {
	var userType string
	var email string

	cmd := &cobra.Command{
		Use:   "registerUser <userID> <displayName>",
		Short: "Create an account, or refresh an existing account's name and email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := model.UserType(userType)
			if !requested.IsValid() {
				return fmt.Errorf("--type must be %q or %q", model.UserTypeVolunteer, model.UserTypeOrganizer)
			}

			user, err := services.RegisterUser(app.Ctx, app.Database, app.Logger, services.Identity{
				UID:         args[0],
				DisplayName: args[1],
				Email:       email,
			}, requested)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ %s (%s) is registered as %s\n\n", user.DisplayName, user.ID, user.UserType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userType, "type", "t", string(model.UserTypeVolunteer), "Account type for a new account: volunteer or organizer")
	cmd.Flags().StringVar(&email, "email", "", "Email address")

	return cmd
}

// AsCmd creates the as command, which switches the acting user
func AsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "as <userID>",
		Short: "Run the following commands as another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev := app.ActingUser
			app.ActingUser = args[0]

			session, err := app.Session()
			if err != nil {
				app.ActingUser = prev
				return err
			}

			fmt.Printf("Acting as %s (%s)\n", session.UserID, session.UserType)
			return nil
		},
	}
}
