package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ensure WriteBehind implements KV
var _ KV = (*WriteBehind)(nil)

// WriteBehind wraps a KV so that Set never blocks on the backend.
//
// Writes are queued and applied by a single goroutine in the order keys were
// first queued. Repeated writes to a key that has not been written yet are
// coalesced into the latest value, which is safe because every value is a
// complete snapshot. Get observes queued and in-flight values before asking
// the backend. A failed write is logged, reported to the failure hook and
// dropped.
type WriteBehind struct {
	kv      KV
	timeout time.Duration
	onError func(key string, err error)

	mu       sync.Mutex
	pending  map[string][]byte
	order    []string
	inflight map[string][]byte
	waiters  []chan struct{}
	closed   bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// WriteBehindOption configures a WriteBehind.
type WriteBehindOption func(*WriteBehind)

// WithWriteTimeout bounds each backend write. Defaults to 2s.
func WithWriteTimeout(d time.Duration) WriteBehindOption {
	return func(w *WriteBehind) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithFailureHook registers fn to be called after a backend write fails.
func WithFailureHook(fn func(key string, err error)) WriteBehindOption {
	return func(w *WriteBehind) {
		w.onError = fn
	}
}

// NewWriteBehind starts the writer goroutine. The WriteBehind owns kv and
// closes it on Close.
func NewWriteBehind(kv KV, opts ...WriteBehindOption) *WriteBehind {
	w := &WriteBehind{
		kv:       kv,
		timeout:  2 * time.Second,
		pending:  make(map[string][]byte),
		inflight: make(map[string][]byte),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Get returns the newest known value for key: queued, then in-flight, then
// whatever the backend holds.
func (w *WriteBehind) Get(ctx context.Context, key string) ([]byte, bool, error) {
	w.mu.Lock()
	if v, ok := w.pending[key]; ok {
		w.mu.Unlock()
		return cloneBytes(v), true, nil
	}
	if v, ok := w.inflight[key]; ok {
		w.mu.Unlock()
		return cloneBytes(v), true, nil
	}
	w.mu.Unlock()
	return w.kv.Get(ctx, key)
}

// Set queues a write and returns immediately.
func (w *WriteBehind) Set(_ context.Context, key string, value []byte) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = cloneBytes(value)
	w.mu.Unlock()

	w.signal()
	return nil
}

// Flush blocks until every write queued before the call has been attempted.
func (w *WriteBehind) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	c := make(chan struct{})
	w.waiters = append(w.waiters, c)
	w.mu.Unlock()

	w.signal()
	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued writes, stops the writer and closes the backend.
func (w *WriteBehind) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
	return w.kv.Close()
}

func (w *WriteBehind) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *WriteBehind) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			waiters := w.waiters
			w.waiters = nil
			w.mu.Unlock()
			for _, c := range waiters {
				close(c)
			}
			return
		}
		order, batch := w.order, w.pending
		w.order, w.pending = nil, make(map[string][]byte)
		w.inflight = batch
		w.mu.Unlock()

		for _, key := range order {
			w.write(key, batch[key])
		}

		w.mu.Lock()
		w.inflight = make(map[string][]byte)
		w.mu.Unlock()
	}
}

func (w *WriteBehind) write(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.kv.Set(ctx, key, value); err != nil {
		slog.Warn("Background write failed", "key", key, "error", err)
		if w.onError != nil {
			w.onError(key, err)
		}
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
