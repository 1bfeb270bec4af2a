package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"carelink/internal/config"
	"carelink/pkg/types"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wireFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// notificationServer is a minimal stand-in for the real backend: it
// records every connection and lets the test push frames to the newest one.
type notificationServer struct {
	server   *httptest.Server
	sessions chan *serverSession
}

type serverSession struct {
	conn     *websocket.Conn
	query    map[string]string
	received chan wireFrame
}

func startNotificationServer(t *testing.T) *notificationServer {
	t.Helper()
	ns := &notificationServer{sessions: make(chan *serverSession, 8)}

	ns.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		q := r.URL.Query()
		sess := &serverSession{
			conn: conn,
			query: map[string]string{
				"userId":   q.Get("userId"),
				"userType": q.Get("userType"),
				"userName": q.Get("userName"),
			},
			received: make(chan wireFrame, 32),
		}
		ns.sessions <- sess

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f wireFrame
			if json.Unmarshal(data, &f) == nil {
				sess.received <- f
			}
		}
	}))
	t.Cleanup(ns.server.Close)
	return ns
}

func (ns *notificationServer) waitSession(t *testing.T) *serverSession {
	t.Helper()
	select {
	case sess := <-ns.sessions:
		return sess
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for a client connection")
		return nil
	}
}

func (s *serverSession) push(t *testing.T, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(wireFrame{Event: event, Data: data})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("Server push failed: %v", err)
	}
}

func (s *serverSession) waitFrame(t *testing.T) wireFrame {
	t.Helper()
	select {
	case f := <-s.received:
		return f
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for a client frame")
		return wireFrame{}
	}
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.URL = "ws" + strings.TrimPrefix(serverURL, "http")
	cfg.Server.ReconnectAttempts = 1
	cfg.Server.ReconnectDelay = 50 * time.Millisecond
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met in time")
}

func startApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	a, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	a.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})
	return a
}

// TestApplication_EndToEnd drives the whole layer against a live websocket
// server: login, inbound events, toast actions, history, logout.
func TestApplication_EndToEnd(t *testing.T) {
	ns := startNotificationServer(t)
	a := startApplication(t, testConfig(t, ns.server.URL))

	identity := types.Identity{ID: "patient-1", Name: "Pat One", Role: types.RolePatient}
	if err := a.Session().SetIdentity(identity); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	sess := ns.waitSession(t)
	if sess.query["userId"] != "patient-1" || sess.query["userType"] != types.RolePatient {
		t.Errorf("Unexpected credentials: %v", sess.query)
	}
	waitFor(t, a.Manager().Connected)

	// A routine appointment event becomes a stored record, no toast.
	sess.push(t, types.EventNewAppointment, map[string]interface{}{"doctorName": "Dr. Rao"})
	waitFor(t, func() bool { return a.Store().Count() == 2 }) // Connected + appointment
	if len(a.Toasts().Shown()) != 0 {
		t.Error("Medium-priority record should not toast")
	}

	// An incoming video call toasts and its accept action reaches the server.
	sess.push(t, types.EventVideoCallRequest, map[string]interface{}{
		"callId":     "call-314",
		"callerName": "Dr. Rao",
	})
	waitFor(t, func() bool { return len(a.Toasts().Shown()) == 1 })

	entry := a.Toasts().Shown()[0]
	if !entry.HasActions() {
		t.Fatal("Video-call toast should expose actions")
	}
	a.Toasts().Accept(entry.Notification.ID)

	accept := sess.waitFrame(t)
	if accept.Event != types.EventAcceptVideoCall {
		t.Fatalf("Expected accept frame, got %s", accept.Event)
	}
	payload, ok := accept.Data.(map[string]interface{})
	if !ok || payload["callId"] != "call-314" {
		t.Errorf("Unexpected accept payload: %v", accept.Data)
	}
	if len(a.Toasts().Shown()) != 0 {
		t.Error("Accepted toast still shown")
	}

	// Presence updates bypass the store entirely.
	sess.push(t, types.EventUsersOnline, []interface{}{
		map[string]interface{}{"id": "doctor-1", "name": "Dr. Rao", "role": "doctor"},
	})
	waitFor(t, func() bool { return len(a.Manager().OnlineUsers()) == 1 })
	if a.Store().Count() != 3 {
		t.Errorf("Presence event created a record, store at %d", a.Store().Count())
	}

	// Every stored record reached the local history cache.
	waitFor(t, func() bool {
		recent, err := a.RecentHistory(context.Background(), 10)
		return err == nil && len(recent) == 3
	})

	// Logout tears the connection down server-side too.
	a.Session().Clear()
	waitFor(t, func() bool { return !a.Manager().Connected() })
}

// TestApplication_RoleScopedDelivery verifies a doctor session receives
// doctor events and a subsequent patient session does not.
func TestApplication_RoleScopedDelivery(t *testing.T) {
	ns := startNotificationServer(t)
	a := startApplication(t, testConfig(t, ns.server.URL))

	doctor := types.Identity{ID: "doctor-1", Name: "Dr. Rao", Role: types.RoleDoctor}
	if err := a.Session().SetIdentity(doctor); err != nil {
		t.Fatal(err)
	}
	sess := ns.waitSession(t)
	waitFor(t, a.Manager().Connected)

	sess.push(t, types.EventEmergencyConsultation, map[string]interface{}{"message": "Chest pain, ward 4"})
	waitFor(t, func() bool { return a.Store().Count() == 2 })

	// Emergency records are high priority and therefore toast.
	waitFor(t, func() bool { return len(a.Toasts().Shown()) == 1 })
	a.Toasts().Dismiss(a.Toasts().Shown()[0].Notification.ID)

	// Switch to a patient: new connection, emergency events no longer land.
	patient := types.Identity{ID: "patient-1", Name: "Pat One", Role: types.RolePatient}
	if err := a.Session().SetIdentity(patient); err != nil {
		t.Fatal(err)
	}
	sess2 := ns.waitSession(t)
	waitFor(t, a.Manager().Connected)
	countBefore := a.Store().Count()

	sess2.push(t, types.EventEmergencyConsultation, map[string]interface{}{"message": "Should not route"})
	// Follow with an event that does route, proving the first was dropped
	// rather than still in flight.
	sess2.push(t, types.EventNewAppointment, nil)
	waitFor(t, func() bool { return a.Store().Count() == countBefore+1 })

	if a.Store().List()[0].Type != types.NotificationAppointment {
		t.Errorf("Expected only the appointment routed, got %s", a.Store().List()[0].Type)
	}
}

// TestApplication_DemoFallback verifies an unreachable server degrades to
// demo mode rather than failing login.
func TestApplication_DemoFallback(t *testing.T) {
	cfg := config.DefaultConfig()
	// Nothing listens here; the dial fails fast.
	cfg.Server.URL = "ws://127.0.0.1:1/socket"
	cfg.Server.DialTimeout = 500 * time.Millisecond
	cfg.Server.ConnectTimeout = time.Second
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	a := startApplication(t, cfg)

	identity := types.Identity{ID: "patient-1", Name: "Pat One", Role: types.RolePatient}
	if err := a.Session().SetIdentity(identity); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		records := a.Store().List()
		return len(records) == 1 && records[0].Title == "Demo Mode Active"
	})
	if a.Manager().Connected() {
		t.Error("Demo fallback must read as not connected")
	}
}

func TestApplication_HistoryUnavailableDegrades(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.URL = "ws://127.0.0.1:1/socket"
	cfg.Server.DialTimeout = 500 * time.Millisecond
	cfg.Server.ConnectTimeout = time.Second
	// A directory path cannot be opened as a database file.
	cfg.History.Path = t.TempDir()

	a, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("Expected memory-only degradation, got %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})

	recent, err := a.RecentHistory(context.Background(), 10)
	if err != nil || recent != nil {
		t.Errorf("Expected nil history when cache unavailable, got %v, %v", recent, err)
	}
}
