package session

import (
	"log"
	"sync"

	"carelink/pkg/types"
)

// Provider owns the current authenticated identity for one application
// session and notifies subscribers when it changes. The host application's
// auth flow writes to it; the connection manager only reads and subscribes
// ARCHITECTURAL DISCOVERY: Explicit session-scoped object instead of
// ambient global state, so lifecycle is tied to session start and end
type Provider struct {
	mu            sync.RWMutex
	identity      types.Identity
	authenticated bool
	subscribers   map[int]func(types.Identity, bool)
	nextSubID     int
}

// NewProvider creates an unauthenticated provider.
func NewProvider() *Provider {
	return &Provider{
		subscribers: make(map[int]func(types.Identity, bool)),
	}
}

// SetIdentity marks the session authenticated as the given identity.
func (p *Provider) SetIdentity(identity types.Identity) error {
	if !types.IsValidUserID(identity.ID) {
		return types.ErrInvalidUserID
	}
	if !types.IsValidRole(identity.Role) {
		return types.ErrInvalidRole
	}

	p.mu.Lock()
	p.identity = identity
	p.authenticated = true
	subs := p.snapshotSubscribers()
	p.mu.Unlock()

	log.Printf("Session authenticated: user=%s role=%s", identity.ID, identity.Role)
	for _, fn := range subs {
		fn(identity, true)
	}
	return nil
}

// Clear marks the session unauthenticated (logout).
func (p *Provider) Clear() {
	p.mu.Lock()
	wasAuthenticated := p.authenticated
	p.identity = types.Identity{}
	p.authenticated = false
	subs := p.snapshotSubscribers()
	p.mu.Unlock()

	if !wasAuthenticated {
		return // Idempotent - no change to announce
	}
	log.Printf("Session cleared")
	for _, fn := range subs {
		fn(types.Identity{}, false)
	}
}

// Current returns the identity and whether the session is authenticated.
func (p *Provider) Current() (types.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity, p.authenticated
}

// Subscribe registers a change callback and returns an unsubscribe func.
// Callbacks run synchronously on the goroutine that changed the session.
func (p *Provider) Subscribe(fn func(identity types.Identity, authenticated bool)) func() {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// snapshotSubscribers copies the callback set; callers must hold p.mu.
// Callbacks are invoked after release so they may re-enter the provider.
func (p *Provider) snapshotSubscribers() []func(types.Identity, bool) {
	subs := make([]func(types.Identity, bool), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
