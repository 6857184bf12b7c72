package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// ReconcileCmd creates the reconcile command
func ReconcileCmd(app *AppContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check stored counters against the check-in records",
		Long: `Recompute every event's participant count and every volunteer's EcoScore and
check-in total from the check-in records and report any drift. Duplicate
check-ins and check-ins of deleted events are reported too. With --apply the
counters are repaired and the uncounted check-ins deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			result, err := services.ReconcileCounters(app.Ctx, app.Database, app.Cfg, app.Logger, session, apply)
			if err != nil {
				return err
			}

			if !result.HasDrift() {
				fmt.Println("\n✓ All counters match the check-in records.")
				return nil
			}

			fmt.Println()
			for _, u := range result.Users {
				fmt.Printf("  user %-28s  EcoScore %d → %d, check-ins %d → %d\n",
					u.UserID, u.StoredEcoScore, u.ExpectedEcoScore, u.StoredTotalCheckIns, u.ExpectedTotalCheckIns)
			}
			for _, e := range result.Events {
				fmt.Printf("  event %-36s  participants %d → %d\n", e.EventID, e.StoredCount, e.ExpectedCount)
			}
			if n := len(result.DuplicateCheckIns); n > 0 {
				fmt.Printf("  %d duplicate check-ins\n", n)
			}
			if n := len(result.OrphanCheckIns); n > 0 {
				fmt.Printf("  %d check-ins of deleted events\n", n)
			}
			fmt.Println()

			if result.Applied {
				fmt.Println("✓ Drift repaired.")
			} else {
				fmt.Println("Run again with --apply to repair.")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Repair the drift instead of only reporting it")

	return cmd
}
