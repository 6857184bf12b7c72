package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
)

// ScheduleEventsCmd creates the scheduleEvents command
func ScheduleEventsCmd(app *AppContext) *cobra.Command {
	var weeks int

	cmd := &cobra.Command{
		Use:   "scheduleEvents [from]",
		Short: "Create upcoming occurrences of the recurring events in the config",
		Long: `Create upcoming occurrences of the recurring events in the config.
Occurrences are created from the given date (default today) for --weeks weeks.
Occurrences that already exist are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			from := time.Now().UTC().Truncate(24 * time.Hour)
			if len(args) > 0 {
				from, err = time.Parse(model.DateLayout, args[0])
				if err != nil {
					return fmt.Errorf("from must be a date formatted as YYYY-MM-DD: %w", err)
				}
			}
			until := from.AddDate(0, 0, 7*weeks)

			result, err := services.ScheduleRecurringEvents(app.Ctx, app.Database, app.Cfg, app.Logger, session, from, until)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Scheduled %d events (%d already existed)\n\n", len(result.Created), len(result.Skipped))
			for _, e := range result.Created {
				fmt.Printf("  + %s  %s\n", e.Date, e.Title)
			}
			if len(result.Created) > 0 {
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&weeks, "weeks", 4, "Number of weeks to schedule")

	return cmd
}
