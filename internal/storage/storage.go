// Package storage provides the flat key-value store that holds the session
// and device-local records.
package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"edublog/internal/config"
	"edublog/internal/storage/memory"
	"edublog/internal/storage/redisstore"
	"edublog/internal/storage/sqlstore"
)

// Store is a string-keyed store of string values.
type Store interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys; absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite", "postgres":
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		return store, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redisstore.New(client, cfg.Namespace)
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
