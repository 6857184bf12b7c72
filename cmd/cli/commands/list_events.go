package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

// ListEventsCmd creates the listEvents command
func ListEventsCmd(app *AppContext) *cobra.Command {
	var status, from, organizer string

	cmd := &cobra.Command{
		Use:   "listEvents",
		Short: "List cleanup events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := services.ListEvents(app.Ctx, app.Database, services.EventFilter{
				Status:      model.EventStatus(status),
				OrganizerID: organizer,
				FromDate:    from,
			})
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			if len(events) == 0 {
				fmt.Println("No events found.")
				return nil
			}

			fmt.Printf("\nFound %d events:\n\n", len(events))
			fmt.Printf("%-36s  %-10s  %-9s  %6s  %8s  %s\n", "ID", "Date", "Status", "People", "Waste", "Title")
			for _, e := range events {
				fmt.Printf("%-36s  %-10s  %-9s  %6d  %8.2f  %s\n",
					e.ID, e.Date, e.Status, e.ParticipantCount, e.WasteAvailable, e.Title)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only events with this status (active, cancelled)")
	cmd.Flags().StringVar(&from, "from", "", "Only events on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&organizer, "organizer", "", "Only events created by this organizer")

	return cmd
}
