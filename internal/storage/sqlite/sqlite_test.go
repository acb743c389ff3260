package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	require.NoError(t, err, "failed to create store")
	defer store.Close()

	ctx := context.Background()

	t.Run("Get reports absent keys", func(t *testing.T) {
		value, ok, err := store.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("Set then Get round-trips bytes", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, storage.KeyTheme, []byte(`"light"`)))

		value, ok, err := store.Get(ctx, storage.KeyTheme)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"light"`, string(value))
	})

	t.Run("Set replaces previous value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, storage.KeyTheme, []byte(`"dark"`)))

		value, _, err := store.Get(ctx, storage.KeyTheme)
		require.NoError(t, err)
		assert.Equal(t, `"dark"`, string(value))
	})

	t.Run("JSON helpers store a working bill", func(t *testing.T) {
		bill := models.Bill{
			Lines: []models.LineItem{{ItemName: "Rice", LineTotal: 10}},
			Total: 10,
		}
		require.NoError(t, storage.SetJSON(ctx, store, storage.KeyBill, bill))

		var got models.Bill
		ok, err := storage.GetJSON(ctx, store, storage.KeyBill, &got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, bill, got)
	})

	t.Run("Keys lists stored keys", func(t *testing.T) {
		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{storage.KeyBill, storage.KeyTheme}, keys)
	})

	t.Run("data survives reopening", func(t *testing.T) {
		require.NoError(t, store.Close())

		reopened, err := New(dbPath)
		require.NoError(t, err)
		store = reopened

		value, ok, err := store.Get(ctx, storage.KeyTheme)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"dark"`, string(value))
		assert.NoError(t, store.Ping(ctx))
	})
}
