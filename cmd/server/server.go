// Package server implements the server command running the HTTP API and the stale run watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/watcher"
	"github.com/oar-cd/shipyard/web/handlers"
	"github.com/oar-cd/shipyard/web/routes"
)

const shutdownTimeout = 30 * time.Second

// NewCmdServer creates a command to run both the API and the watcher
func NewCmdServer() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run Shipyard server (HTTP API + stale run watcher)",
		Long:  "Starts the HTTP API and the watcher that recovers interrupted generation and deployment runs in a single process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle shutdown signals
			go handleShutdown(ctx, cancel)

			return runServer(ctx, app.GetConfig())
		},
	}

	return cmd
}

// runServer runs the API and the watcher until ctx is cancelled
func runServer(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateForServer(); err != nil {
		return err
	}

	slog.Info("Starting Shipyard server (api + watcher)", "version", app.Version)

	handler, err := buildHandler(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start watcher service in background
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		if err := startWatcherService(ctx, cfg); err != nil {
			slog.Error("Watcher service failed", "error", err)
			cancel() // Trigger shutdown
		}
	}()

	// Start web server (blocks until shutdown)
	err = startWebServer(ctx, cfg, handler)
	cancel()
	<-watcherDone
	return err
}

func buildHandler(cfg *config.Config) (http.Handler, error) {
	tokens, err := app.GetTokenService()
	if err != nil {
		return nil, err
	}

	// A nil interface disables rate limiting
	var limiter handlers.Limiter
	if l, ok := app.GetLimiter(); ok {
		limiter = l
	}

	h := handlers.New(
		app.GetProjectService(),
		app.GetAuditRecorder(),
		app.GetLLMRegistry(),
		deploytarget.ConfiguredProviders(cfg),
		app.Version,
	)
	return routes.NewRouter(h, tokens, limiter), nil
}

// startWebServer starts the HTTP server
func startWebServer(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	address := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "address", "http://"+address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("web server failed: %w", err)
		}
	}

	// Graceful shutdown
	slog.Info("Shutting down web server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}

	slog.Info("Web server stopped")
	return nil
}

// startWatcherService starts the watcher service
func startWatcherService(ctx context.Context, cfg *config.Config) error {
	watcherService := watcher.NewWatcherService(
		app.GetProjectService(),
		cfg.WatcherPollInterval,
		cfg.StaleAfter,
	)

	if err := watcherService.Start(ctx); err != nil {
		return fmt.Errorf("watcher service failed: %w", err)
	}

	slog.Info("Watcher service stopped")
	return nil
}

// handleShutdown cancels the server context on SIGINT or SIGTERM
func handleShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		slog.Info("Shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}
