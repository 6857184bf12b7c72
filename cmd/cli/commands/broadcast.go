package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// BroadcastCmd creates the broadcast command
func BroadcastCmd(app *AppContext) *cobra.Command {
	var email, push bool

	cmd := &cobra.Command{
		Use:   "broadcast <eventID> <subject> <message>",
		Short: "Message every volunteer who checked in to an event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			notifiers, err := app.Notifiers(email, push)
			if err != nil {
				return err
			}

			result, err := services.BroadcastMessage(app.Ctx, app.Database, notifiers, app.Logger, session, args[0],
				services.BroadcastInput{Subject: args[1], Message: args[2]})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Broadcast stored for %d volunteers\n\n", result.Recipients)

			if len(result.DeliveryFailures) > 0 {
				fmt.Printf("⚠️  %d deliveries failed:\n", len(result.DeliveryFailures))
				for _, f := range result.DeliveryFailures {
					fmt.Printf("  ✗ [%s] %s: %s\n", f.Channel, f.RecipientID, f.Reason)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&email, "email", false, "Also deliver by email through Gmail")
	cmd.Flags().BoolVar(&push, "push", false, "Also deliver as push notifications")

	return cmd
}
