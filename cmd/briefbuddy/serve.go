package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tropica/briefbuddy/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the intake API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, flags, os.Stdout)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr != "" {
				app.Config.Server.Addr = addr
			}
			return runServer(ctx, app)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func runServer(ctx context.Context, app *App) error {
	srv := server.New(app.Flow, app.Sessions, server.Options{
		BodyLimitMB: app.Config.Server.BodyLimitMB,
		CORSOrigins: app.Config.CORSOriginList(),
		Gatherer:    app.Registry,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(app.Config.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
