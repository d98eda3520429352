package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
	"github.com/emilythestrangee/stackit/backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().String("port", "8080", "HTTP listen port")
	cmd.Flags().Bool("migrate", true, "Run migrations on startup")
	if err := a.v.BindPFlag("server.port", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	if err := a.v.BindPFlag("database.auto_migrate", cmd.Flags().Lookup("migrate")); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	httpServer := server.New(a.cfg, db, m, a.logger).HTTPServer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
