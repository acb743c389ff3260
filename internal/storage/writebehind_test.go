package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighbill/internal/storage"
)

// recordingKV is an in-memory KV that records writes and can be gated or
// made to fail.
type recordingKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes []string
	gate   chan struct{}
	fail   error
	closed bool
}

func newRecordingKV() *recordingKV {
	return &recordingKV{data: make(map[string][]byte)}
}

func (r *recordingKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *recordingKV) Set(_ context.Context, key string, value []byte) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.data[key] = value
	r.writes = append(r.writes, key+"="+string(value))
	return nil
}

func (r *recordingKV) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingKV) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func TestWriteBehind_SetIsVisibleBeforeBackendWrite(t *testing.T) {
	backend := newRecordingKV()
	backend.gate = make(chan struct{})
	w := storage.NewWriteBehind(backend)

	ctx := context.Background()
	require.NoError(t, w.Set(ctx, storage.KeyBill, []byte(`{"total":10}`)))

	got, ok, err := w.Get(ctx, storage.KeyBill)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"total":10}`, string(got))

	close(backend.gate)
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []string{`calc={"total":10}`}, backend.snapshot())
	require.NoError(t, w.Close())
	assert.True(t, backend.closed)
}

func TestWriteBehind_PreservesKeyOrder(t *testing.T) {
	backend := newRecordingKV()
	backend.gate = make(chan struct{})
	w := storage.NewWriteBehind(backend)
	ctx := context.Background()

	// The first write is picked up immediately and blocks on the gate; the
	// rest queue behind it.
	require.NoError(t, w.Set(ctx, "a", []byte("1")))
	require.Eventually(t, func() bool {
		v, ok, _ := w.Get(ctx, "a")
		return ok && string(v) == "1"
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Set(ctx, "b", []byte("1")))
	require.NoError(t, w.Set(ctx, "c", []byte("1")))

	close(backend.gate)
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, []string{"a=1", "b=1", "c=1"}, backend.snapshot())
	require.NoError(t, w.Close())
}

func TestWriteBehind_CoalescesQueuedWrites(t *testing.T) {
	backend := newRecordingKV()
	backend.gate = make(chan struct{})
	w := storage.NewWriteBehind(backend)
	ctx := context.Background()

	require.NoError(t, w.Set(ctx, "other", []byte("x")))
	// Let the writer grab "other" and block on it.
	time.Sleep(20 * time.Millisecond)
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, w.Set(ctx, storage.KeyBill, []byte(v)))
	}

	close(backend.gate)
	require.NoError(t, w.Flush(ctx))

	writes := backend.snapshot()
	assert.Contains(t, writes, "calc=3")
	assert.NotContains(t, writes, "calc=1")
	require.NoError(t, w.Close())
}

func TestWriteBehind_FailuresAreReportedNotReturned(t *testing.T) {
	backend := newRecordingKV()
	backend.fail = errors.New("quota exceeded")

	var mu sync.Mutex
	var failed []string
	w := storage.NewWriteBehind(backend, storage.WithFailureHook(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, key)
	}))
	ctx := context.Background()

	require.NoError(t, w.Set(ctx, storage.KeyHistory, []byte("[]")))
	require.NoError(t, w.Flush(ctx))

	mu.Lock()
	assert.Equal(t, []string{storage.KeyHistory}, failed)
	mu.Unlock()

	_, ok, err := w.Get(ctx, storage.KeyHistory)
	require.NoError(t, err)
	assert.False(t, ok, "dropped write must not linger")
	require.NoError(t, w.Close())
}

func TestWriteBehind_CloseDrainsAndRejects(t *testing.T) {
	backend := newRecordingKV()
	w := storage.NewWriteBehind(backend)
	ctx := context.Background()

	require.NoError(t, w.Set(ctx, "k", []byte("v")))
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"k=v"}, backend.snapshot())

	assert.ErrorIs(t, w.Set(ctx, "k", []byte("w")), storage.ErrClosed)
	assert.NoError(t, w.Flush(ctx))
	assert.NoError(t, w.Close())
}

func TestJSONHelpers(t *testing.T) {
	backend := newRecordingKV()
	ctx := context.Background()

	var dst map[string]int
	ok, err := storage.GetJSON(ctx, backend, "missing", &dst)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetJSON(ctx, backend, "m", map[string]int{"a": 1}))
	ok, err = storage.GetJSON(ctx, backend, "m", &dst)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, dst["a"])

	backend.data["bad"] = []byte("{not json")
	ok, err = storage.GetJSON(ctx, backend, "bad", &dst)
	assert.True(t, ok)
	assert.Error(t, err)
}
