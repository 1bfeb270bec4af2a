package timers

import (
	"sync"
	"time"
)

// Registry tracks named timers for one manager instance
// ARCHITECTURAL DISCOVERY: Every scheduled callback is owned by a name in
// exactly one registry, so teardown can cancel deterministically and no
// stale callback can mutate state after its precondition is gone
type Registry struct {
	mu      sync.Mutex
	clock   Clock
	pending map[string]Timer
	stopped bool
}

// NewRegistry creates a registry backed by the given clock.
func NewRegistry(clock Clock) *Registry {
	return &Registry{
		clock:   clock,
		pending: make(map[string]Timer),
	}
}

// Schedule arms a named timer. A pending timer with the same name is
// replaced. The callback runs at most once and only while its entry is
// still the current one for that name.
func (r *Registry) Schedule(name string, delay time.Duration, fn func()) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	if old, exists := r.pending[name]; exists {
		old.Stop()
	}

	// FUNCTIONAL DISCOVERY: The wrapper re-checks registry state before
	// invoking fn; Stop on the underlying timer alone is not sufficient
	// because a fake clock may already hold the callback for delivery
	var t Timer
	t = r.clock.AfterFunc(delay, func() {
		r.mu.Lock()
		if r.stopped || r.pending[name] != t {
			r.mu.Unlock()
			return
		}
		delete(r.pending, name)
		r.mu.Unlock()
		fn()
	})
	r.pending[name] = t
	r.mu.Unlock()
}

// Cancel stops the named timer if pending. No-op otherwise.
func (r *Registry) Cancel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, exists := r.pending[name]; exists {
		t.Stop()
		delete(r.pending, name)
	}
}

// CancelAll stops every pending timer.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.pending {
		t.Stop()
		delete(r.pending, name)
	}
}

// Pending reports whether a timer with the given name is armed.
func (r *Registry) Pending(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.pending[name]
	return exists
}

// Stop cancels everything and rejects further scheduling. Used at teardown.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.pending {
		t.Stop()
		delete(r.pending, name)
	}
	r.stopped = true
}
