package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// DeleteEventCmd creates the deleteEvent command
func DeleteEventCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteEvent <eventID>",
		Short: "Delete an event with its check-ins and notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			result, err := services.DeleteEvent(app.Ctx, app.Database, app.Cfg, app.Logger, session, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Event deleted\n\n")
			fmt.Printf("Check-ins removed:     %d\n", result.DeletedCheckIns)
			fmt.Printf("Notifications removed: %d\n", result.DeletedNotifications)
			fmt.Printf("Volunteers adjusted:   %d\n\n", len(result.AffectedUsers))

			return nil
		},
	}
}
