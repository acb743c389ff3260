package calculator

import (
	"log/slog"
	"sync"
)

// subscriber delivers mini values to one callback. Values are delivered in
// version order and a stale version is dropped. A callback that changes the
// mini re-entrantly has its newer value delivered once it returns.
type subscriber struct {
	fn func(int64)

	mu         sync.Mutex
	active     bool
	delivering bool
	hasQueued  bool
	pending    bool
	queuedVer  uint64
	queued     int64
}

func (s *subscriber) deliver(version uint64, value int64) {
	s.mu.Lock()
	if !s.active || (s.hasQueued && version <= s.queuedVer) {
		s.mu.Unlock()
		return
	}
	s.queuedVer, s.queued = version, value
	s.hasQueued, s.pending = true, true
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for s.active && s.pending {
		s.pending = false
		v := s.queued
		s.mu.Unlock()
		s.call(v)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *subscriber) call(value int64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Mini subscriber panicked", "panic", r)
		}
	}()
	s.fn(value)
}

func (s *subscriber) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// registry holds mini subscribers in subscription order.
type registry struct {
	mu   sync.Mutex
	subs []*subscriber
}

func (r *registry) add(fn func(int64)) (*subscriber, func()) {
	s := &subscriber{fn: fn, active: true}

	r.mu.Lock()
	r.subs = append(r.subs, s)
	r.mu.Unlock()

	var once sync.Once
	return s, func() {
		once.Do(func() {
			s.deactivate()
			r.remove(s)
		})
	}
}

func (r *registry) remove(s *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub == s {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *registry) publish(version uint64, value int64) {
	r.mu.Lock()
	subs := make([]*subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, s := range subs {
		s.deliver(version, value)
	}
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
