package manager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"carelink/internal/config"
	"carelink/internal/presence"
	"carelink/internal/router"
	"carelink/internal/session"
	"carelink/internal/store"
	"carelink/internal/timers"
	"carelink/pkg/interfaces"
	"carelink/pkg/types"
)

// State is the connection lifecycle state, owned exclusively by the manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDemoFallback State = "demo-fallback"
)

const timerConnect = "connect-timeout"

// Manager owns the lifecycle of one persistent connection per
// authenticated session and the projections fed by it
// ARCHITECTURAL DISCOVERY: Central coordination point; session changes,
// transport callbacks, and timer firings all serialize on one mutex so
// every mutation is a discrete reaction, never interleaved
type Manager struct {
	cfg      *config.Config
	dial     interfaces.DialFunc
	store    *store.Store
	router   *router.Router
	presence *presence.Registry
	registry *timers.Registry

	mu            sync.Mutex
	state         State
	identity      types.Identity
	authenticated bool
	transport     interfaces.Transport
	generation    uint64 // Invalidates callbacks from abandoned dials and closed transports
	liveStats     map[string]interface{}

	unsubscribe func()
	stopped     bool
}

// NewManager wires a manager over its collaborators. Call Start to attach
// it to the session provider.
func NewManager(cfg *config.Config, dial interfaces.DialFunc, st *store.Store, rt *router.Router, pres *presence.Registry, registry *timers.Registry) *Manager {
	return &Manager{
		cfg:      cfg,
		dial:     dial,
		store:    st,
		router:   rt,
		presence: pres,
		registry: registry,
		state:    StateDisconnected,
	}
}

// Start subscribes to session changes and applies the current session
// state immediately.
func (m *Manager) Start(provider *session.Provider) {
	m.unsubscribe = provider.Subscribe(m.handleSessionChange)
	if identity, ok := provider.Current(); ok {
		m.handleSessionChange(identity, true)
	}
}

// Stop tears the manager down: connection closed, every pending timer
// cancelled, no orphaned callback fires afterward.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.teardownLocked()
	m.mu.Unlock()

	m.registry.Stop()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	log.Printf("Connection manager stopped")
}

// handleSessionChange reacts to login, logout, and role switches.
func (m *Manager) handleSessionChange(identity types.Identity, authenticated bool) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}

	if !authenticated {
		m.router.ClearRole()
		m.teardownLocked()
		m.mu.Unlock()
		return
	}

	// FUNCTIONAL DISCOVERY: A role switch is a full reconnect; the old
	// connection and its subscriptions are dropped before the new ones
	// are established so stale events can never be routed
	m.teardownLocked()
	m.identity = identity
	m.authenticated = true
	m.router.SetRole(identity.Role)

	m.state = StateConnecting
	m.generation++
	gen := m.generation
	m.registry.Schedule(timerConnect, m.cfg.Server.ConnectTimeout, func() {
		m.connectTimeout(gen)
	})
	go m.dialAsync(gen, identity)
	m.mu.Unlock()

	log.Printf("Connecting to notification server: user=%s role=%s", identity.ID, identity.Role)
}

// dialAsync attempts the websocket handshake off the caller's goroutine.
func (m *Manager) dialAsync(gen uint64, identity types.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Server.DialTimeout)
	defer cancel()

	t, err := m.dial(ctx, identity, &transportHandler{manager: m, gen: gen})

	m.mu.Lock()
	if m.stopped || gen != m.generation || m.state != StateConnecting {
		m.mu.Unlock()
		// Stale result: the attempt was abandoned or superseded. Only a
		// successful dial has a transport to close; a concrete dial func
		// can return a typed-nil alongside its error.
		if err == nil && t != nil {
			_ = t.Close()
		}
		return
	}

	if err != nil {
		log.Printf("Connection failed, entering demo mode: %v", err)
		m.enterDemoFallbackLocked(gen)
		m.announceDemoModeLocked()
		m.mu.Unlock()
		return
	}

	m.transport = t
	m.state = StateConnected
	m.registry.Cancel(timerConnect)
	m.cancelDemoTimersLocked()
	m.addSystem("Connected", "Real-time notifications are active", types.PriorityLow)
	m.mu.Unlock()

	log.Printf("Connected to notification server: user=%s", identity.ID)
}

// connectTimeout enforces the overall manager-level connect budget.
func (m *Manager) connectTimeout(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.generation || m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	log.Printf("Connection attempt timed out, entering demo mode")
	m.enterDemoFallbackLocked(gen)
	m.announceDemoModeLocked()
	m.mu.Unlock()
}

// enterDemoFallbackLocked switches to demo mode and schedules the
// scripted notification sequence. Callers must hold m.mu.
func (m *Manager) enterDemoFallbackLocked(gen uint64) {
	m.registry.Cancel(timerConnect)
	m.state = StateDemoFallback

	// FUNCTIONAL DISCOVERY: Demo mode is a degraded mode, not an error;
	// the scripted timers are cancelled if a real connection lands later
	for i := range demoScript {
		index := i
		delay := time.Duration(index+1) * m.cfg.Notifications.DemoInterval
		m.registry.Schedule(demoTimerName(index), delay, func() {
			m.demoNotify(gen, index)
		})
	}
}

// demoNotify inserts one scripted record if demo mode is still current.
// The insert happens under m.mu so a concurrent teardown cannot land
// between the generation check and the store mutation.
func (m *Manager) demoNotify(gen uint64, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || gen != m.generation || m.state != StateDemoFallback {
		return
	}

	script := demoScript[index]
	m.store.Add(&types.Notification{
		ID:        types.NewNotificationID(),
		Type:      script.Type,
		Title:     script.Title,
		Message:   script.Message,
		Priority:  script.Priority,
		CreatedAt: time.Now(),
	})
}

// announceDemoModeLocked inserts the fallback announcement. Callers must
// hold m.mu so the announcement cannot outlive a concurrent teardown.
func (m *Manager) announceDemoModeLocked() {
	m.addSystem("Demo Mode Active", "Could not reach the notification server; showing simulated activity", types.PriorityLow)
}

// cancelDemoTimersLocked drops any pending scripted notifications.
func (m *Manager) cancelDemoTimersLocked() {
	for i := range demoScript {
		m.registry.Cancel(demoTimerName(i))
	}
}

// teardownLocked closes the connection and resets all connection-scoped
// state. Callers must hold m.mu.
func (m *Manager) teardownLocked() {
	m.registry.Cancel(timerConnect)
	m.cancelDemoTimersLocked()

	if m.transport != nil {
		_ = m.transport.Close()
		m.transport = nil
	}

	// Bump the generation so in-flight callbacks from the old connection
	// or abandoned dials are discarded.
	m.generation++
	m.identity = types.Identity{}
	m.authenticated = false
	m.liveStats = nil
	m.presence.Clear()
	m.state = StateDisconnected
}

// transportHandler binds transport callbacks to the dial generation that
// created them.
type transportHandler struct {
	manager *Manager
	gen     uint64
}

func (h *transportHandler) HandleEvent(event types.Event) {
	h.manager.handleEvent(h.gen, event)
}

func (h *transportHandler) HandleStatus(status interfaces.ConnectionStatus) {
	h.manager.handleStatus(h.gen, status)
}

// handleEvent dispatches one inbound event in arrival order.
func (m *Manager) handleEvent(gen uint64, event types.Event) {
	m.mu.Lock()
	if m.stopped || gen != m.generation {
		m.mu.Unlock()
		return
	}

	switch event.Name {
	case types.EventStatsUpdate:
		m.liveStats = event.Payload
		m.mu.Unlock()
		return

	case types.EventUsersOnline:
		m.mu.Unlock()
		m.presence.Replace(parseOnlineUsers(event.Payload))
		return
	}
	m.mu.Unlock()

	if err := m.router.Route(event); err != nil {
		log.Printf("Event not routed: name=%s reason=%v", event.Name, err)
	}
}

// handleStatus reacts to transport lifecycle changes.
func (m *Manager) handleStatus(gen uint64, status interfaces.ConnectionStatus) {
	m.mu.Lock()
	if m.stopped || gen != m.generation {
		m.mu.Unlock()
		return
	}

	switch status {
	case interfaces.StatusReconnecting:
		m.state = StateConnecting
		m.mu.Unlock()
		log.Printf("Connection dropped, transport reconnecting")

	case interfaces.StatusReconnected:
		m.state = StateConnected
		m.addSystem("Connected", "Real-time notifications are active", types.PriorityLow)
		m.mu.Unlock()

	case interfaces.StatusServerClosed:
		// FUNCTIONAL DISCOVERY: A server-initiated close is deliberate;
		// no reconnect, one notification, remain disconnected
		m.transport = nil
		m.state = StateDisconnected
		m.presence.Clear()
		m.addSystem("Connection Lost", "The server closed the connection", types.PriorityMedium)
		m.mu.Unlock()

	case interfaces.StatusFailed:
		m.transport = nil
		m.state = StateDisconnected
		m.presence.Clear()
		m.mu.Unlock()
		log.Printf("Reconnect attempts exhausted, staying disconnected")

	default:
		m.mu.Unlock()
	}
}

// addSystem inserts a system-type notification. Lifecycle paths call it
// while holding m.mu so the insert cannot interleave with a teardown;
// store observers must therefore never re-enter the manager.
func (m *Manager) addSystem(title, message, priority string) {
	m.store.Add(&types.Notification{
		ID:        types.NewNotificationID(),
		Type:      types.NotificationSystem,
		Title:     title,
		Message:   message,
		Priority:  priority,
		CreatedAt: time.Now(),
	})
}

// parseOnlineUsers decodes a users-online payload defensively; entries
// that are not objects with an id are skipped.
func parseOnlineUsers(payload map[string]interface{}) []types.OnlineUser {
	if payload == nil {
		return nil
	}
	items, ok := payload["items"].([]interface{})
	if !ok {
		items, ok = payload["users"].([]interface{})
		if !ok {
			return nil
		}
	}

	users := make([]types.OnlineUser, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		if id == "" {
			continue
		}
		name, _ := entry["name"].(string)
		role, _ := entry["role"].(string)
		status, _ := entry["status"].(string)
		users = append(users, types.OnlineUser{ID: id, Name: name, Role: role, Status: status})
	}
	return users
}

// --- Outbound operations ---
// Each is a no-op when no connection is currently open.

// JoinRoom subscribes to a named room (e.g. a chat between two parties).
func (m *Manager) JoinRoom(roomID string) {
	m.emit(types.EventJoinRoom, map[string]interface{}{"roomId": roomID})
}

// LeaveRoom unsubscribes from a named room.
func (m *Manager) LeaveRoom(roomID string) {
	m.emit(types.EventLeaveRoom, map[string]interface{}{"roomId": roomID})
}

// SendMessage sends a chat message to a room.
func (m *Manager) SendMessage(roomID, message string) {
	m.emit(types.EventSendMessage, map[string]interface{}{
		"messageId": uuid.New().String(),
		"roomId":    roomID,
		"message":   message,
	})
}

// UpdateStatus publishes our presence status and mirrors it locally.
func (m *Manager) UpdateStatus(status string) {
	m.mu.Lock()
	selfID := m.identity.ID
	m.mu.Unlock()

	m.emit(types.EventUpdateStatus, map[string]interface{}{"status": status})
	if selfID != "" {
		m.presence.SetStatus(selfID, status)
	}
}

// RequestVideoCall asks a recipient for a video consultation.
func (m *Manager) RequestVideoCall(recipientID string, callData map[string]interface{}) {
	m.emit(types.EventVideoCallRequest, map[string]interface{}{
		"recipientId": recipientID,
		"callData":    callData,
	})
}

// AcceptVideoCall accepts an incoming call by id.
func (m *Manager) AcceptVideoCall(callID string) {
	m.emit(types.EventAcceptVideoCall, map[string]interface{}{"callId": callID})
}

// RejectVideoCall declines an incoming call by id.
func (m *Manager) RejectVideoCall(callID string) {
	m.emit(types.EventRejectVideoCall, map[string]interface{}{"callId": callID})
}

// RequestStatsUpdate asks the server to push fresh dashboard stats.
func (m *Manager) RequestStatsUpdate() {
	m.emit(types.EventRequestStatsUpdate, nil)
}

func (m *Manager) emit(event string, payload interface{}) {
	m.mu.Lock()
	t := m.transport
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || t == nil {
		return // No connection open: outbound operations are no-ops
	}
	if err := t.Emit(event, payload); err != nil {
		log.Printf("Emit failed: event=%s err=%v", event, err)
	}
}

// --- UI boundary ---

// Connected reports whether a live connection is established. Demo
// fallback deliberately reads as not connected.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Notifications returns the stored records, most recent first.
func (m *Manager) Notifications() []*types.Notification {
	return m.store.List()
}

// NotificationCount returns the stored record count for the badge.
func (m *Manager) NotificationCount() int {
	return m.store.Count()
}

// LiveStats returns the latest dashboard stats pushed by the server.
func (m *Manager) LiveStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveStats == nil {
		return nil
	}
	stats := make(map[string]interface{}, len(m.liveStats))
	for k, v := range m.liveStats {
		stats[k] = v
	}
	return stats
}

// OnlineUsers returns the current presence list.
func (m *Manager) OnlineUsers() []types.OnlineUser {
	return m.presence.List()
}

// AddNotification inserts an application-constructed record, filling in
// the id, timestamp, and priority default when omitted.
func (m *Manager) AddNotification(n *types.Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	if n.ID == "" {
		n.ID = types.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Priority = types.NormalizePriority(n.Priority)
	if err := n.Validate(); err != nil {
		return err
	}
	m.store.Add(n)
	return nil
}

// RemoveNotification removes a record by id; no-op for unknown ids.
func (m *Manager) RemoveNotification(id string) {
	m.store.Remove(id)
}

// ClearAllNotifications empties the notification store.
func (m *Manager) ClearAllNotifications() {
	m.store.ClearAll()
}

func demoTimerName(index int) string {
	return fmt.Sprintf("demo:%d", index)
}
