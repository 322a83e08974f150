package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edublog/internal/config"
	"edublog/internal/devserver"
)

func main() {
	configPath := flag.String("config", "edublog.yaml", "path to config file")
	seedEmail := flag.String("seed-email", "", "create an account with this email on startup")
	seedPassword := flag.String("seed-password", "", "password for the seeded account")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	srv := devserver.New(devserver.Config{
		JWTSecret: cfg.DevAPI.JWTSecret,
		TokenTTL:  cfg.DevAPI.TokenTTL,
	}, logger)

	if *seedEmail != "" {
		if _, err := srv.SeedAccount("Admin", *seedEmail, *seedPassword); err != nil {
			logger.Error("failed to seed account", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded account", "email", *seedEmail)
	}

	httpServer := &http.Server{
		Addr:              cfg.DevAPI.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting development backend", "addr", cfg.DevAPI.Addr)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
