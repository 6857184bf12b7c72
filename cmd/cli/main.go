package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/cmd/cli/commands"
	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/db/memstore"
	"github.com/projectseashield/seashield/pkg/postgres"
	"github.com/projectseashield/seashield/pkg/utils/logging"
)

var (
	env      string
	as       string
	memory   bool
	verbose  bool
	jsonLogs bool

	app     = &commands.AppContext{}
	cleanup func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seashield",
		Short: "Project Seashield CLI - Coordinate beach cleanup volunteers",
		Long: `A CLI for running beach cleanups: create and schedule events, check volunteers in,
message participants, publish reports and serve the HTTP API used by the web client.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cleanup != nil {
				cleanup()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&as, "as", "", "User ID to act as")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "Use an in-memory store instead of the database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log JSON to the console instead of colored text")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.RegisterUserCmd(app))
	rootCmd.AddCommand(commands.AsCmd(app))
	rootCmd.AddCommand(commands.CreateEventCmd(app))
	rootCmd.AddCommand(commands.ListEventsCmd(app))
	rootCmd.AddCommand(commands.CancelEventCmd(app))
	rootCmd.AddCommand(commands.DeleteEventCmd(app))
	rootCmd.AddCommand(commands.ScheduleEventsCmd(app))
	rootCmd.AddCommand(commands.CheckInCmd(app))
	rootCmd.AddCommand(commands.AssignTeamsCmd(app))
	rootCmd.AddCommand(commands.ProfileCmd(app))
	rootCmd.AddCommand(commands.LeaderboardCmd(app))
	rootCmd.AddCommand(commands.BroadcastCmd(app))
	rootCmd.AddCommand(commands.EventReportCmd(app))
	rootCmd.AddCommand(commands.ExportReportCmd(app))
	rootCmd.AddCommand(commands.ReconcileCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and the store
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Env = env
	app.ActingUser = as

	// Initialize logger
	app.Logger, err = logging.New(logging.Options{Env: env, Dir: "logs", Verbose: verbose, JSONConsole: jsonLogs})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env), zap.Bool("memory", memory))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		if !memory {
			return fmt.Errorf("failed to load config: %w", err)
		}
		app.Logger.Warn("No usable config, using defaults", zap.Error(err))
		app.Cfg = config.Defaults()
	}
	app.Logger.Debug("Configuration loaded successfully")

	if memory {
		app.Database = memstore.New()
		app.Logger.Info("Using in-memory store")
		return nil
	}

	// Connect to the database
	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = database
	app.Migrator = database
	cleanup = database.Close
	app.Logger.Info("Database connected successfully")

	return nil
}
