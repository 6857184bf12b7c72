package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// ProfileCmd creates the profile command
func ProfileCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [userID]",
		Short: "Show a volunteer's totals, streak and badges (default: acting user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			userID := ""
			if len(args) > 0 {
				userID = args[0]
			}

			profile, err := services.ViewProfile(app.Ctx, app.Database, app.Logger, session, userID)
			if err != nil {
				return err
			}

			photos := 0
			for _, c := range profile.CheckIns {
				if c.CheckIn.HasProofPhoto() {
					photos++
				}
			}

			fmt.Printf("\n%s (%s)\n\n", profile.User.DisplayName, profile.User.UserType)
			fmt.Printf("Events attended: %d\n", profile.Summary.CheckInCount)
			fmt.Printf("Waste collected: %.2f kg\n", profile.Summary.TotalWaste)
			fmt.Printf("Photos uploaded: %d\n", photos)
			fmt.Printf("Current streak:  %d days\n", profile.Summary.Streak)
			fmt.Printf("EcoScore:        %d\n\n", profile.User.EcoScore)

			fmt.Println("Badges:")
			for _, b := range profile.BadgeProgress {
				mark := " "
				if b.Earned {
					mark = "✓"
				}
				fmt.Printf("  [%s] %-20s %g/%g\n", mark, b.Badge, b.Current, b.Target)
			}
			fmt.Println()

			if profile.OrphansRemoved > 0 {
				fmt.Printf("Removed %d check-ins for deleted events.\n\n", profile.OrphansRemoved)
			}

			return nil
		},
	}
}
