package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"search-assistant/backend"
	"search-assistant/config"
	"search-assistant/shell"
)

const shutdownTimeout = 5 * time.Second

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Address to listen on, host:port",
		},
	}
}

func Serve(ctx *cli.Context) error {
	settings, err := config.FromCLI(ctx)
	if err != nil {
		return err
	}

	logger := slog.Default()
	client, err := backend.New(settings.Backend, backend.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	server := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: shell.New(client, logger).Router(),
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", slog.String("addr", settings.Server.Addr), slog.String("endpoint", settings.Backend.Endpoint))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unexpected error in http server: %w", err)
		}
		return nil
	case <-runCtx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
