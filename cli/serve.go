package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pantrypal/config"
	"pantrypal/logger"
)

func loadConfig(opts *RootOptions) (*config.Config, *logrus.Logger, error) {
	if opts.ConfigFile != "" {
		os.Setenv("CONFIG_FILE", opts.ConfigFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	app, err := NewApp(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}

	stopCleanup := make(chan struct{})
	go app.Limiter.Run(time.Minute, stopCleanup)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		log.Info("Cleaning up resources before shutdown")
		close(stopCleanup)
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = app.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("Disconnect failed")
	}
	log.Info("Server stopped cleanly")
	return nil
}
