package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"edublog/internal/api"
	"edublog/internal/config"
	"edublog/internal/domain"
	"edublog/internal/events"
	"edublog/internal/feed"
	"edublog/internal/publisher"
	"edublog/internal/service"
	"edublog/internal/session"
	"edublog/internal/storage"
)

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store     storage.Store
	client    *api.Client
	session   *session.Manager
	loader    *feed.Loader
	posts     *service.PostService
	accounts  *service.AccountService
	publisher service.Publisher

	unsubscribe func()
}

func newApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := setupLogger(cfg.LogLevel)

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened store", "driver", cfg.Store.Driver)

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}

	a.client = api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, session.Tokens{Store: store}, logger)

	a.session = session.NewManager(store, a.client, events.NewBus[domain.Event](), logger)

	if cfg.RabbitMQ.Enabled() {
		pub, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Warn("activity publishing disabled", "error", err)
		} else {
			a.publisher = pub
			a.unsubscribe = a.session.Subscribe(func(ev domain.Event) {
				if err := pub.Publish(ctx, &ev); err != nil {
					logger.Warn("failed to publish session event", "kind", ev.Kind, "error", err)
				}
			})
		}
	}

	policy, err := feed.ParsePolicy(cfg.Feed.Overlap)
	if err != nil {
		a.close()
		return nil, err
	}
	a.loader = feed.NewLoader(a.client, feed.Config{
		PageSize: cfg.Feed.PageSize,
		Policy:   policy,
	}, logger)

	a.posts = service.NewPostService(a.client, a.session, store, a.publisher, logger)
	a.accounts = service.NewAccountService(a.client, a.session, a.publisher, logger)

	return a, nil
}

func (a *app) close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// setupLogger writes JSON logs to stderr; stdout carries command output.
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
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
