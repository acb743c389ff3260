package redis_test

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighbill/internal/storage"
	"github.com/mmynk/weighbill/internal/storage/redis"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	ctx := context.Background()
	store, err := redis.New(ctx, "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	t.Run("Get reports absent keys", func(t *testing.T) {
		_, ok, err := store.Get(ctx, storage.KeyHistory)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set writes under the prefix", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, storage.KeyTheme, []byte(`"light"`)))

		raw, err := mr.Get(redis.DefaultPrefix + storage.KeyTheme)
		require.NoError(t, err)
		assert.Equal(t, `"light"`, raw)
		assert.Zero(t, mr.TTL(redis.DefaultPrefix+storage.KeyTheme))

		value, ok, err := store.Get(ctx, storage.KeyTheme)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"light"`, string(value))
	})

	t.Run("custom prefix isolates stores", func(t *testing.T) {
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		other := redis.NewWithClient(client, "till2:")
		t.Cleanup(func() { _ = other.Close() })

		_, ok, err := other.Get(ctx, storage.KeyTheme)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, other.Ping(ctx))
	})

	t.Run("New fails for unreachable servers", func(t *testing.T) {
		_, err := redis.New(ctx, "redis://127.0.0.1:1/0", "")
		assert.Error(t, err)
	})

	t.Run("New rejects malformed urls", func(t *testing.T) {
		_, err := redis.New(ctx, "not a url", "")
		assert.Error(t, err)
	})
}
