package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RezaEskandarii/reportfire/app"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatcher, the history janitor and the HTTP endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if !skipMigrations {
				if err := c.Migrator.Up(ctx); err != nil {
					return err
				}
			}
			return serve(ctx, c)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}

func serve(ctx context.Context, c *app.Container) error {
	if err := c.Janitor.Start(ctx, c.Config.JanitorSpec); err != nil {
		return err
	}
	defer c.Janitor.Stop()

	if addr := c.Config.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", c.Metrics.Handler())
		defer startHTTP(c.Logger, "metrics", addr, mux)()
	}
	if addr := c.Config.HTTPAddr; addr != "" {
		defer startHTTP(c.Logger, "api", addr, web.NewRouter(c.Manager, c.Metrics.Handler(), c.Logger.With(logger.String("component", "api"))))()
	}

	trig, err := c.NewTrigger()
	if err != nil {
		return err
	}
	defer trig.Stop()

	if err := c.Dispatcher.Run(ctx, trig); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startHTTP serves handler on addr in the background and returns its shutdown func.
func startHTTP(log logger.Logger, name, addr string, handler http.Handler) func() {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("HTTP server listening", logger.String("server", name), logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", logger.String("server", name), logger.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
