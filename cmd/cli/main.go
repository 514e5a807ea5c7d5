package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/cmd/cli/commands"
	"github.com/jakechorley/volunteer-events/internal/config"
	"github.com/jakechorley/volunteer-events/pkg/db/memdb"
	"github.com/jakechorley/volunteer-events/pkg/postgres"
	"github.com/jakechorley/volunteer-events/pkg/utils/logging"
)

var (
	env      string
	inMemory bool
	app      = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Volunteer events CLI - run the API and the scheduled jobs",
		Long: `A CLI for the volunteer events service: serve the HTTP API, apply migrations,
seed the skill catalog, and run the reminder, email relay and roster export jobs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// interactive sessions reuse the app built for the first command
			if app.Logger != nil {
				return nil
			}
			return initApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "Use the in-memory store instead of postgres")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.SeedSkillsCmd(app))
	rootCmd.AddCommand(commands.CreateAccountCmd(app))
	rootCmd.AddCommand(commands.ListEventsCmd(app))
	rootCmd.AddCommand(commands.ListVolunteersCmd(app))
	rootCmd.AddCommand(commands.ViewRosterCmd(app))
	rootCmd.AddCommand(commands.ExportRosterCmd(app))
	rootCmd.AddCommand(commands.SendEventRemindersCmd(app))
	rootCmd.AddCommand(commands.RelayEmailsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	err := rootCmd.Execute()

	if app.Logger != nil {
		app.Logger.Sync()
	}
	app.Close()

	if err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger and database
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, app.Cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	if inMemory {
		app.Logger.Warn("Using in-memory store, data is lost on exit")
		app.Database = memdb.New()
		return nil
	}

	app.Logger.Info("Connecting to database")
	app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Database = app.Postgres
	app.Logger.Info("Database initialized successfully")

	return nil
}
