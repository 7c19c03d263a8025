package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
)

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(unreachable).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fallback disabled fails", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
	})
}
