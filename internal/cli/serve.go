package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/api"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/config"
)

const shutdownTimeout = 30 * time.Second

// ServeFlags override the API section of the config file.
type ServeFlags struct {
	Host string
	Port int
}

func (a *app) newServeCmd() *cobra.Command {
	flags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.API.Host = flags.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.API.Port = flags.Port
			}
			return a.runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&flags.Host, "host", "", "Interface to bind (overrides api.host)")
	cmd.Flags().IntVar(&flags.Port, "port", 0, "Port to listen on (overrides api.port)")
	return cmd
}

// runServe blocks until SIGINT/SIGTERM or ctx is cancelled, then drains
// in-flight requests.
func (a *app) runServe(ctx context.Context, cfg *config.Config) error {
	svc, logger, closeStore, err := a.openService(cfg, "api")
	if err != nil {
		return err
	}
	defer closeStore()

	server := api.NewServer(api.ConfigFrom(cfg), svc, logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
