package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edublog/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []config.StoreConfig{
		{Driver: "memory"},
		{Driver: "sqlite", DSN: ":memory:"},
	} {
		store, err := Open(ctx, cfg)
		require.NoError(t, err, cfg.Driver)

		require.NoError(t, store.Set(ctx, "accessToken", "t"))
		v, ok, err := store.Get(ctx, "accessToken")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "t", v)

		assert.NoError(t, store.Close())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mongo"})
	assert.ErrorContains(t, err, "unknown store driver")
}
