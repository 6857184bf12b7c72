package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/api"
	"github.com/projectseashield/seashield/pkg/clients/firebaseclient"
	"github.com/projectseashield/seashield/pkg/core/services"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var port int
	var email, push, sheets bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API used by the web client. Requests are authenticated with
Firebase ID tokens, so firebase credentials must be configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fbApp, err := app.FirebaseApp()
			if err != nil {
				return err
			}
			verifier, err := firebaseclient.NewVerifier(app.Ctx, fbApp)
			if err != nil {
				return err
			}

			notifiers, err := app.Notifiers(email, push)
			if err != nil {
				return err
			}

			var publisher services.ReportPublisher
			if sheets {
				client, err := app.SheetsClient()
				if err != nil {
					return err
				}
				publisher = client
			}

			if port == 0 {
				port = app.Cfg.HTTP.Port
			}

			server := api.NewServer(api.Deps{
				Store:     app.Database,
				Config:    app.Cfg,
				Logger:    app.Logger,
				Verifier:  verifier,
				Notifiers: notifiers,
				Publisher: publisher,
				Metrics:   api.NewMetrics(),
			})

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Logger.Info("Starting API server",
				zap.Int("port", port),
				zap.Int("notifiers", len(notifiers)),
				zap.Bool("report_export", publisher != nil))

			if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", port)); err != nil && err != context.Canceled {
				return fmt.Errorf("api server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (defaults to http.port from config)")
	cmd.Flags().BoolVar(&email, "email", false, "Deliver broadcasts by email through Gmail")
	cmd.Flags().BoolVar(&push, "push", true, "Deliver broadcasts as push notifications")
	cmd.Flags().BoolVar(&sheets, "sheets", false, "Enable report export to Google Sheets")

	return cmd
}
