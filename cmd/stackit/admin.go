package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

// open connects to the configured database for one-shot commands.
func (a *app) open() (*gorm.DB, func(), error) {
	if err := a.cfg.Validate(false); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := database.Open(a.cfg.Database, logging.Module(a.logger, "database"))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			a.logger.Info("database migrations completed")
			return nil
		},
	}
}

func seedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default tag catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			n, err := database.Seed(cmd.Context(), db)
			if err != nil {
				return err
			}
			a.logger.Info("tags seeded", "inserted", n)
			return nil
		},
	}
}

func reconcileCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute vote counters and repair drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			engine := voting.New(db, voting.WithLogger(a.logger), voting.WithRetry(a.cfg.Voting))
			report, err := engine.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func tokenCommand(a *app) *cobra.Command {
	var (
		userID string
		email  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(true); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id = parsed
			}

			token, err := middleware.GenerateToken(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, id, email, a.cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "user_id: %s\n", id)
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (default: a new random id)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	return cmd
}
