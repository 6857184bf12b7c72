package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// AssignTeamsCmd creates the assignTeams command
func AssignTeamsCmd(app *AppContext) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "assignTeams <eventID>",
		Short: "Split an event's participants into teams in check-in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			assignments, err := services.AutoAssignTeams(app.Ctx, app.Database, app.Cfg, app.Logger, session, args[0], size)
			if err != nil {
				return err
			}

			byTeam := make(map[string][]string)
			for checkInID, team := range assignments {
				byTeam[team] = append(byTeam[team], checkInID)
			}
			names := make([]string, 0, len(byTeam))
			for name := range byTeam {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("\n✓ Assigned %d check-ins to %d teams\n\n", len(assignments), len(names))
			for _, name := range names {
				fmt.Printf("  %-12s %d members\n", name, len(byTeam[name]))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "Team size (defaults to autoAssignTeamSize from config)")

	return cmd
}
