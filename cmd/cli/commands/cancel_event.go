package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// CancelEventCmd creates the cancelEvent command
func CancelEventCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancelEvent <eventID>",
		Short: "Cancel an event so no one else can check in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			event, err := services.CancelEvent(app.Ctx, app.Database, app.Logger, session, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Cancelled %q on %s\n\n", event.Title, event.Date)
			return nil
		},
	}
}
