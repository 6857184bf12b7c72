package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// EventReportCmd creates the eventReport command
func EventReportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eventReport <eventID>",
		Short: "Show participants, waste and feedback for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			report, err := services.BuildEventReport(app.Ctx, app.Database, app.Logger, session, args[0])
			if err != nil {
				return err
			}

			printEventReport(report)
			return nil
		},
	}
}

func printEventReport(report *services.EventReport) {
	fmt.Printf("\n📋 %s (%s, %s)\n\n", report.Event.Title, report.Event.Date, report.Event.Status)

	if len(report.Participants) == 0 {
		fmt.Println("No one has checked in yet.")
		fmt.Println()
		return
	}

	fmt.Printf("%-25s  %-16s  %8s  %5s  %6s  %-15s\n", "Name", "Checked in", "Waste", "Photo", "Rating", "Team")
	for _, p := range report.Participants {
		photo := "-"
		if p.ProofPhoto {
			photo = "✓"
		}
		rating := "-"
		if p.Rating > 0 {
			rating = fmt.Sprintf("%d/5", p.Rating)
		}
		team := p.Team
		if team == "" {
			team = "-"
		}
		fmt.Printf("%-25s  %-16s  %8.2f  %5s  %6s  %-15s\n", p.Name, p.CheckedInAt, p.WasteCollected, photo, rating, team)
	}

	fmt.Printf("\nParticipants:    %d\n", len(report.Participants))
	fmt.Printf("Waste collected: %.2f kg\n", report.TotalWasteCollected)
	fmt.Printf("Proof photos:    %d\n", report.PhotoCount)
	if report.FeedbackCount > 0 {
		fmt.Printf("Average rating:  %.1f (%d responses, %.0f%% would recommend)\n",
			report.AverageRating, report.FeedbackCount, report.RecommendPercent)
	}
	fmt.Println()
}
