package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "stackit",
		Short:         "StackIt Q&A backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, a); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		serveCommand(a),
		migrateCommand(a),
		seedCommand(a),
		reconcileCommand(a),
		tokenCommand(a),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(a.v, a.configFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.logger = logging.New(cfg.Log, os.Stderr)
		slog.SetDefault(a.logger)
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, a *app) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("db-driver", config.DriverPostgres, "Database driver (postgres, sqlite)")
	flags.String("db-path", "stackit.db", "SQLite database file")

	for key, name := range map[string]string{
		"log.level":       "log-level",
		"log.format":      "log-format",
		"database.driver": "db-driver",
		"database.path":   "db-path",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
	}
	return nil
}
