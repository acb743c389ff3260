package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
	"github.com/mmynk/weighbill/internal/storage/memory"
)

func TestSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing is stored", func(t *testing.T) {
		s := New(memory.New(), nil)
		got, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), got)
	})

	t.Run("partial documents keep defaults", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, storage.KeySettings, []byte(`{"currencySymbol":"$"}`)))

		got, err := New(store, nil).Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "$", got.CurrencySymbol)
		assert.Equal(t, []float64{50, 100, 500, 1000}, got.DefaultWeights)
		assert.True(t, got.ConfirmClear)
	})

	t.Run("corrupt documents yield defaults", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, storage.KeySettings, []byte(`[`)))

		got, err := New(store, nil).Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), got)
	})

	t.Run("Update stores valid settings", func(t *testing.T) {
		s := New(memory.New(), nil)
		in := models.Settings{CurrencySymbol: " Rs ", DefaultWeights: []float64{250, 750}}

		saved, err := s.Update(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "Rs", saved.CurrencySymbol)

		got, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("Update rejects invalid settings", func(t *testing.T) {
		s := New(memory.New(), nil)

		_, err := s.Update(ctx, models.Settings{CurrencySymbol: ""})
		assert.ErrorIs(t, err, ErrInvalidSettings)

		_, err = s.Update(ctx, models.Settings{CurrencySymbol: "₹", DefaultWeights: []float64{-5}})
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store, nil)

	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)

	theme, err = s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, theme)

	raw, ok, err := store.Get(ctx, storage.KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"light"`, string(raw))

	theme, err = s.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)
}
