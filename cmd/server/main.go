// Package main provides the entry point for the warpgen server.
// It loads the environment configuration, wires the WARP registration
// client, endpoint discovery, statistics store and webhook tracking
// together, and serves the REST API until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warpgen/internal/api"
	"warpgen/internal/auth"
	"warpgen/internal/config"
	"warpgen/internal/endpoint"
	"warpgen/internal/generator"
	"warpgen/internal/notify"
	"warpgen/internal/qr"
	"warpgen/internal/stats"
	"warpgen/internal/warp"
	"warpgen/internal/web"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run composes the application and blocks until the server stops or a
// shutdown signal arrives.
func run(cfg *config.Config, logger *slog.Logger) error {
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := auth.GenerateSecureSecret()
		if err != nil {
			return err
		}
		secret = generated
		logger.Warn("WARPGEN_JWT_SECRET is not set, using a generated secret; issued tokens will not survive a restart")
	}

	admin, err := auth.NewAdmin(cfg.AdminUser, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return err
	}
	if !admin.Enabled() {
		logger.Warn("admin login is disabled, set WARPGEN_ADMIN_PASSWORD or WARPGEN_ADMIN_PASSWORD_HASH to enable it")
	}

	store, err := stats.New(cfg.DBPath)
	if err != nil {
		return err
	}

	webhook := notify.NewWebhook(cfg.WebhookURL, cfg.WebhookReadURL, cfg.WebhookCutoff, logger)
	tracker := notify.NewTracker(webhook, store, logger)

	gen := generator.New(warp.NewClient(cfg.RegURL, cfg.RegTimeout, logger), logger)
	gen.SetNotifier(tracker)

	generateAPI := api.NewGenerateAPI(gen, endpoint.NewDiscoverer(logger), qr.NewGenerator(), cfg.ProbeTimeout, logger)
	statsAPI := api.NewStatsAPI(store, tracker, logger)

	authManager := auth.NewAuthManager(secret)
	adminAPI := api.NewAdminAPI(admin, authManager)

	server := web.NewServer(&web.ServerConfig{
		Addr:  cfg.Addr,
		Debug: cfg.Debug,
	}, generateAPI, statsAPI, adminAPI, authManager, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(ctx)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
