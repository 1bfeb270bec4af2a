package toast

import (
	"log"
	"sync"
	"time"

	"carelink/internal/store"
	"carelink/internal/timers"
	"carelink/pkg/types"
)

// Display defaults for transient overlays.
const (
	DefaultCapacity = 3
	DefaultTTL      = 10 * time.Second
)

// CallResponder handles the accept/decline actions exposed on video-call
// toasts. Satisfied by the connection manager's outbound surface.
type CallResponder interface {
	AcceptVideoCall(callID string)
	RejectVideoCall(callID string)
}

// Entry is a transient projection of a stored notification with its own
// independent lifetime. Destroying it never touches the underlying record.
type Entry struct {
	Notification *types.Notification
	ShownAt      time.Time
}

// HasActions reports whether the toast exposes accept/decline buttons.
func (e *Entry) HasActions() bool {
	return e.Notification.Type == types.NotificationVideoCall
}

// Policy decides which store insertions become transient overlays
// ARCHITECTURAL DISCOVERY: The policy observes the store, it never mutates
// it; toast lifetime and record lifetime are fully independent
type Policy struct {
	mu          sync.Mutex
	capacity    int
	ttl         time.Duration
	registry    *timers.Registry
	clock       timers.Clock
	responder   CallResponder
	shown       []*Entry // display FIFO, oldest first
	unsubscribe func()
	stopped     bool
}

// NewPolicy attaches a toast policy to the store's insertion stream.
// Values <= 0 fall back to the display defaults.
func NewPolicy(st *store.Store, responder CallResponder, registry *timers.Registry, clock timers.Clock, capacity int, ttl time.Duration) *Policy {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &Policy{
		capacity:  capacity,
		ttl:       ttl,
		registry:  registry,
		clock:     clock,
		responder: responder,
	}
	p.unsubscribe = st.OnAdd(p.observe)
	return p
}

// observe promotes qualifying insertions to toasts.
func (p *Policy) observe(n *types.Notification) {
	if n.Priority != types.PriorityHigh {
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	for _, e := range p.shown {
		if e.Notification.ID == n.ID {
			p.mu.Unlock()
			return // Already on screen for this record
		}
	}

	// FUNCTIONAL DISCOVERY: Display FIFO of fixed capacity; a qualifying
	// insertion beyond it drops the oldest shown toast, timer included
	if len(p.shown) >= p.capacity {
		oldest := p.shown[0]
		p.shown = p.shown[1:]
		p.registry.Cancel(timerName(oldest.Notification.ID))
	}

	p.shown = append(p.shown, &Entry{Notification: n, ShownAt: p.clock.Now()})
	p.mu.Unlock()

	id := n.ID
	p.registry.Schedule(timerName(id), p.ttl, func() {
		p.remove(id)
	})
}

// Dismiss removes a toast by explicit user action and cancels its expiry
// timer. No-op for unknown ids.
func (p *Policy) Dismiss(id string) {
	p.registry.Cancel(timerName(id))
	p.remove(id)
}

// Accept invokes the accept action for a video-call toast, then dismisses
// it. The responder fires at most once per toast: a second Accept finds
// nothing on screen and returns.
func (p *Policy) Accept(id string) {
	entry := p.take(id)
	if entry == nil {
		return
	}
	p.registry.Cancel(timerName(id))
	if entry.HasActions() {
		if callID, ok := entry.Notification.Data["callId"].(string); ok {
			p.responder.AcceptVideoCall(callID)
		} else {
			log.Printf("Video call toast without callId: id=%s", id)
		}
	}
}

// Decline invokes the reject action for a video-call toast, then dismisses it.
func (p *Policy) Decline(id string) {
	entry := p.take(id)
	if entry == nil {
		return
	}
	p.registry.Cancel(timerName(id))
	if entry.HasActions() {
		if callID, ok := entry.Notification.Data["callId"].(string); ok {
			p.responder.RejectVideoCall(callID)
		}
	}
}

// Shown returns the currently visible toasts in display order.
func (p *Policy) Shown() []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Entry, len(p.shown))
	copy(out, p.shown)
	return out
}

// Stop detaches from the store and cancels every pending expiry timer.
func (p *Policy) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	shown := p.shown
	p.shown = nil
	p.mu.Unlock()

	p.unsubscribe()
	for _, e := range shown {
		p.registry.Cancel(timerName(e.Notification.ID))
	}
}

// remove drops a toast from the display list if still shown.
func (p *Policy) remove(id string) {
	p.take(id)
}

// take removes and returns the toast entry for id, or nil.
func (p *Policy) take(id string) *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.shown {
		if e.Notification.ID == id {
			p.shown = append(p.shown[:i], p.shown[i+1:]...)
			return e
		}
	}
	return nil
}

func timerName(id string) string {
	return "toast:" + id
}
