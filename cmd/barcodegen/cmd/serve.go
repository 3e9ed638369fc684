package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/config"
	"github.com/MeKo-Tech/barcodegen/internal/server"
	"github.com/MeKo-Tech/barcodegen/internal/version"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the barcode HTTP server",
		Long: `Start an HTTP server exposing barcode rendering and decoding.

Endpoints:
  GET  /health        health check
  GET  /symbologies   symbology rules
  GET  /data          remote-compatible image endpoint (?value=...&type=ean13)
  GET  /render        local render (?text=...&symbology=qr&mode=normal&format=png)
  POST /scan          decode an uploaded image (multipart field "image")
  GET  /ws            websocket render requests
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}

	cmd.Flags().StringP("host", "H", "localhost", "server host")
	cmd.Flags().IntP("port", "p", server.DefaultPort, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	cmd.Flags().Int("max-upload-size", 10, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 30, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	cmd.Flags().Int("scale", 0, "pixels per module (default: render.scale from config)")

	// Rate limiting flags; zero disables a limit
	cmd.Flags().Int("requests-per-minute", 0, "maximum requests per minute per client")
	cmd.Flags().Int("requests-per-hour", 0, "maximum requests per hour per client")
	cmd.Flags().Int("max-requests-per-day", 0, "maximum requests per day per client")
	cmd.Flags().Int64("max-data-per-day", 0, "maximum upload data per day per client (MB)")
	return cmd
}

// buildServerConfig maps configuration and flags onto server.Config.
func buildServerConfig(cmd *cobra.Command, cfg *config.Config) (server.Config, time.Duration, error) {
	registry, err := cfg.ToRegistry()
	if err != nil {
		return server.Config{}, 0, err
	}
	sc := cfg.ToServerConfig(registry, version.Version)

	if cmd.Flags().Changed("host") {
		sc.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		sc.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		sc.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("max-upload-size") {
		mb, _ := cmd.Flags().GetInt("max-upload-size")
		sc.MaxUploadMB = int64(mb)
	}
	if cmd.Flags().Changed("timeout") {
		sc.TimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("scale") {
		sc.Scale, _ = cmd.Flags().GetInt("scale")
	}
	if cmd.Flags().Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
	}
	if cmd.Flags().Changed("requests-per-hour") {
		sc.RateLimit.RequestsPerHour, _ = cmd.Flags().GetInt("requests-per-hour")
	}
	if cmd.Flags().Changed("max-requests-per-day") {
		sc.RateLimit.MaxRequestsPerDay, _ = cmd.Flags().GetInt("max-requests-per-day")
	}
	if cmd.Flags().Changed("max-data-per-day") {
		mb, _ := cmd.Flags().GetInt64("max-data-per-day")
		sc.RateLimit.MaxDataPerDay = mb * 1024 * 1024
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}
	if sc.Port < 1 || sc.Port > 65535 {
		return sc, 0, fmt.Errorf("invalid port: %d", sc.Port)
	}
	return sc, time.Duration(shutdownTimeout) * time.Second, nil
}

func (a *app) runServe(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	sc, shutdownTimeout, err := buildServerConfig(cmd, cfg)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(sc)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	timeout := time.Duration(sc.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              sc.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting barcode server", "addr", sc.Addr(), "data_types", srv.DataTypes())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("Graceful shutdown completed")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
