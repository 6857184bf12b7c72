package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
	"github.com/projectseashield/seashield/pkg/core/teams"
)

// LeaderboardCmd creates the leaderboard command
func LeaderboardCmd(app *AppContext) *cobra.Command {
	var showTeams bool
	var eventID string
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the volunteer or team leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showTeams {
				board, err := services.TeamLeaderboard(app.Ctx, app.Database, eventID)
				if err != nil {
					return err
				}
				printTeamLeaderboard(board)
				return nil
			}

			ranks, err := services.VolunteerLeaderboard(app.Ctx, app.Database, limit)
			if err != nil {
				return err
			}

			if len(ranks) == 0 {
				fmt.Println("No volunteers yet.")
				return nil
			}

			fmt.Printf("\n🏆 Volunteer Leaderboard\n\n")
			fmt.Printf("%4s  %-25s  %8s  %8s\n", "Rank", "Volunteer", "EcoScore", "Check-ins")
			for _, r := range ranks {
				fmt.Printf("%4d  %-25s  %8d  %8d\n", r.Rank, r.DisplayName, r.EcoScore, r.TotalCheckIns)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().BoolVar(&showTeams, "teams", false, "Rank teams per event instead of volunteers")
	cmd.Flags().StringVar(&eventID, "event", "", "With --teams, only rank teams of this event")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of volunteers to show (0 for all)")

	return cmd
}

func printTeamLeaderboard(board []teams.TeamSummary) {
	if len(board) == 0 {
		fmt.Println("No teams have been assigned yet.")
		return
	}

	fmt.Printf("\n🏆 Team Leaderboard\n\n")
	fmt.Printf("%4s  %-20s  %-30s  %8s  %6s  %7s\n", "Rank", "Team", "Event", "Waste", "Photos", "Members")
	for i, t := range board {
		fmt.Printf("%4d  %-20s  %-30s  %8.2f  %6d  %7d\n",
			i+1, t.TeamName, t.EventDate+" "+t.EventTitle, t.TotalWasteCollected, t.TotalPhotoUploads, len(t.Members))
	}
	fmt.Println()
}
