package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// CheckInCmd creates the checkIn command
func CheckInCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checkIn <eventID>",
		Short: "Check the acting user in to an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			result, err := services.CheckIn(app.Ctx, app.Database, app.Cfg, app.Logger, session, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Checked in to %q\n\n", result.Event.Title)
			fmt.Printf("Check-in ID:     %s\n", result.CheckIn.ID)
			fmt.Printf("Waste collected: %.2f kg\n", result.WasteCollected)
			fmt.Printf("EcoScore:        +%d\n\n", result.EcoScoreDelta)

			return nil
		},
	}
}
