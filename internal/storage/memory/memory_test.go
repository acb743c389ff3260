package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighbill/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("v1")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(got), "stored value is a copy")

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(ctx, "k", nil), storage.ErrClosed)
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
