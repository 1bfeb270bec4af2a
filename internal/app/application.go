package app

import (
	"context"
	"fmt"
	"log"

	"carelink/internal/config"
	"carelink/internal/history"
	"carelink/internal/manager"
	"carelink/internal/presence"
	"carelink/internal/router"
	"carelink/internal/session"
	"carelink/internal/store"
	"carelink/internal/timers"
	"carelink/internal/toast"
	"carelink/internal/transport"
	"carelink/pkg/interfaces"
	"carelink/pkg/types"
)

// Application coordinates all notification-layer components.
// Component initialization follows strict dependency order:
// History → Store → Presence → Router → Manager → Toasts → Session
type Application struct {
	config   *config.Config
	history  *history.Manager // nil when the local cache is unavailable
	store    *store.Store
	presence *presence.Registry
	router   *router.Router
	manager  *manager.Manager
	toasts   *toast.Policy
	session  *session.Provider
	registry *timers.Registry

	historyUnsub func()
}

// NewApplication creates an application instance with all components wired.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clock := timers.NewClock()
	registry := timers.NewRegistry(clock)

	// STEP 1: Local history cache. Failure degrades to memory-only;
	// the notification layer is never fatal to the host application.
	hist, err := history.NewManager(cfg.History.Path, cfg.History.Timeout)
	if err != nil {
		log.Printf("History cache unavailable, running memory-only: %v", err)
		hist = nil
	}

	// STEP 2: In-memory surfaces.
	st := store.New(cfg.Notifications.StoreCapacity)
	pres := presence.NewRegistry()

	// STEP 3: Event routing.
	rt := router.NewRouter(st)

	// STEP 4: Connection manager over the websocket transport.
	dial := func(ctx context.Context, identity types.Identity, handler interfaces.EventHandler) (interfaces.Transport, error) {
		c, err := transport.Dial(ctx, transport.Options{
			URL:               cfg.Server.URL,
			DialTimeout:       cfg.Server.DialTimeout,
			ReconnectAttempts: cfg.Server.ReconnectAttempts,
			ReconnectDelay:    cfg.Server.ReconnectDelay,
		}, identity, handler)
		if err != nil {
			// Return a plain nil interface, not a typed-nil *Connection.
			return nil, err
		}
		return c, nil
	}
	mgr := manager.NewManager(cfg, dial, st, rt, pres, registry)

	// STEP 5: Toast policy observes store insertions; call actions go
	// back through the manager's outbound surface.
	toasts := toast.NewPolicy(st, mgr, registry, clock, cfg.Notifications.ToastCapacity, cfg.Notifications.ToastTTL)

	// STEP 6: Session provider owns identity for this application session.
	provider := session.NewProvider()

	a := &Application{
		config:   cfg,
		history:  hist,
		store:    st,
		presence: pres,
		router:   rt,
		manager:  mgr,
		toasts:   toasts,
		session:  provider,
		registry: registry,
	}

	if hist != nil {
		a.historyUnsub = st.OnAdd(func(n *types.Notification) {
			if err := hist.Record(context.Background(), n); err != nil {
				log.Printf("Failed to record notification in history: %v", err)
			}
		})
	}

	return a, nil
}

// Start attaches the connection manager to the session provider.
func (a *Application) Start() {
	a.manager.Start(a.session)
	log.Printf("Notification layer started")
}

// Stop shuts everything down in reverse dependency order.
func (a *Application) Stop(ctx context.Context) error {
	a.manager.Stop()
	a.toasts.Stop()

	if a.historyUnsub != nil {
		a.historyUnsub()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("History shutdown error: %v", err)
		}
	}

	log.Printf("Notification layer shutdown complete")
	return nil
}

// Session returns the identity provider the host auth flow writes to.
func (a *Application) Session() *session.Provider { return a.session }

// Manager returns the connection manager's UI boundary.
func (a *Application) Manager() *manager.Manager { return a.manager }

// Toasts returns the toast policy surface.
func (a *Application) Toasts() *toast.Policy { return a.toasts }

// Store returns the notification store for UI observation.
func (a *Application) Store() *store.Store { return a.store }

// RecentHistory returns persisted notifications, most recent first, or
// nil when the local cache is unavailable.
func (a *Application) RecentHistory(ctx context.Context, limit int) ([]*types.Notification, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.Recent(ctx, limit)
}
