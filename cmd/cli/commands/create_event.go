package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// CreateEventCmd creates the createEvent command
func CreateEventCmd(app *AppContext) *cobra.Command {
	var input services.CreateEventInput

	cmd := &cobra.Command{
		Use:   "createEvent <title> <date>",
		Short: "Create a cleanup event (date as YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			input.Title = args[0]
			input.Date = args[1]

			event, err := services.CreateEvent(app.Ctx, app.Database, app.Logger, session, input)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Event created successfully!\n\n")
			fmt.Printf("Event ID:        %s\n", event.ID)
			fmt.Printf("Title:           %s\n", event.Title)
			fmt.Printf("Date:            %s\n", event.Date)
			fmt.Printf("Location:        %s\n", event.Location)
			fmt.Printf("Waste available: %.2f kg\n\n", event.WasteAvailable)

			return nil
		},
	}

	cmd.Flags().StringVarP(&input.Location, "location", "l", "", "Where the cleanup takes place (required)")
	cmd.Flags().StringVarP(&input.Description, "description", "d", "", "Event description")
	cmd.Flags().Float64VarP(&input.WasteAvailable, "waste", "w", 0, "Estimated waste on site in kg")

	return cmd
}
