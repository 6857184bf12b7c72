package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectseashield/seashield/pkg/core/services"
)

// ExportReportCmd creates the exportReport command
func ExportReportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportReport <eventID>",
		Short: "Publish an event report to the report spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			report, err := services.ExportEventReport(app.Ctx, app.Database, sheets, app.Cfg, app.Logger, session, args[0])
			if err != nil {
				return fmt.Errorf("failed to export report: %w", err)
			}

			fmt.Printf("\n✅ Report Published Successfully\n\n")
			fmt.Printf("Tab:          %s\n", services.ReportTabTitle(report.Event))
			fmt.Printf("Participants: %d\n", len(report.Participants))
			fmt.Printf("Sheet ID:     %s\n\n", app.Cfg.ReportSheetID)

			return nil
		},
	}
}
